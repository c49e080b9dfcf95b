package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"qrtrack/models"
)

const minPasswordLength = 5

type EmployeeService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewEmployeeService(db *gorm.DB, log *zap.Logger) *EmployeeService {
	return &EmployeeService{db: db, log: log}
}

type EmployeeInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type EmployeeFilter struct {
	Search string
	Role   string
	Status string
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalid("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (in *EmployeeInput) normalize() (models.Role, models.EmployeeStatus, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" {
		return "", "", invalid("name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return "", "", invalid("a valid email is required")
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return "", "", invalid("unknown role %q", in.Role)
	}
	status := models.EmployeeActive
	if in.Status != "" {
		if status, ok = models.ParseEmployeeStatus(in.Status); !ok {
			return "", "", invalid("unknown status %q", in.Status)
		}
	}
	return role, status, nil
}

// Create adds an employee. An email that belonged to a removed employee is
// taken over by reviving that record.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	role, status, err := in.normalize()
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var employee models.Employee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("email = ?", in.Email).First(&employee).Error
		switch {
		case err == nil && !employee.DeletedAt.Valid:
			return ErrDuplicateEmail
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		employee.Name = in.Name
		employee.Email = in.Email
		employee.PasswordHash = hash
		employee.Role = role
		employee.Status = status
		employee.MustChangePassword = false
		employee.DeletedAt = gorm.DeletedAt{}
		return tx.Unscoped().Save(&employee).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("employee created", zap.Uint("employee_id", employee.ID), zap.String("role", string(role)))
	return &employee, nil
}

// Update changes profile fields; the password only when one is given.
func (s *EmployeeService) Update(ctx context.Context, id uint, in EmployeeInput) (*models.Employee, error) {
	role, status, err := in.normalize()
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"name":   in.Name,
		"email":  in.Email,
		"role":   role,
		"status": status,
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
		updates["must_change_password"] = true
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique email index covers soft-deleted rows; Create revives
		// those, so an update must not take their address.
		var holder models.Employee
		err := tx.Unscoped().Where("email = ? AND id <> ?", in.Email, id).First(&holder).Error
		switch {
		case err == nil && holder.DeletedAt.Valid:
			return fmt.Errorf("%w: address belongs to a deleted employee, create the employee again to restore it", ErrDuplicateEmail)
		case err == nil:
			return ErrDuplicateEmail
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		res := tx.Model(&models.Employee{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("employee %w", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *EmployeeService) Get(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, notFound(err, "employee")
	}
	return &employee, nil
}

func (s *EmployeeService) List(ctx context.Context, f EmployeeFilter) ([]models.Employee, error) {
	q := s.db.WithContext(ctx)
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var employees []models.Employee
	err := q.Order("name").Find(&employees).Error
	return employees, err
}

// Delete removes an employee and their assignments. Reports and scans stay.
func (s *EmployeeService) Delete(ctx context.Context, actor *models.Employee, id uint) error {
	if actor.ID == id {
		return fmt.Errorf("%w: you cannot delete your own account", ErrForbidden)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Employee{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("employee %w", ErrNotFound)
		}
		return tx.Where("employee_id = ?", id).Delete(&models.Assignment{}).Error
	})
	if err != nil {
		return err
	}
	s.log.Info("employee deleted", zap.Uint("employee_id", id), zap.Uint("actor_id", actor.ID))
	return nil
}
