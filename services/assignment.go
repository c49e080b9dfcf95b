package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"qrtrack/models"
)

// AssignmentKey selects one side of the employee/location relation. Exactly
// one of the ids is set.
type AssignmentKey struct {
	EmployeeID uint
	LocationID uint
}

func (k AssignmentKey) validate() error {
	if (k.EmployeeID == 0) == (k.LocationID == 0) {
		return invalid("assignment key needs exactly one of employee or location")
	}
	return nil
}

type AssignmentService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAssignmentService(db *gorm.DB, log *zap.Logger) *AssignmentService {
	return &AssignmentService{db: db, log: log}
}

// ListFor returns the ids on the other side of the key: the location ids of
// an employee, or the employee ids of a location.
func (s *AssignmentService) ListFor(ctx context.Context, key AssignmentKey) ([]uint, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	ids := []uint{}
	q := s.db.WithContext(ctx).Model(&models.Assignment{})
	var err error
	if key.EmployeeID != 0 {
		err = q.Where("employee_id = ?", key.EmployeeID).Order("location_id").Pluck("location_id", &ids).Error
	} else {
		err = q.Where("location_id = ?", key.LocationID).Order("employee_id").Pluck("employee_id", &ids).Error
	}
	return ids, err
}

// Replace makes ids the complete assignment set for key. The delete and the
// insert share one transaction, so a failure leaves the previous set intact.
func (s *AssignmentService) Replace(ctx context.Context, key AssignmentKey, ids []uint) ([]uint, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	ids = uniqueIDs(ids)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkExists(tx, key, ids); err != nil {
			return err
		}

		del := tx.Where("employee_id = ?", key.EmployeeID)
		if key.LocationID != 0 {
			del = tx.Where("location_id = ?", key.LocationID)
		}
		if err := del.Delete(&models.Assignment{}).Error; err != nil {
			return fmt.Errorf("clear assignments: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		rows := make([]models.Assignment, 0, len(ids))
		for _, id := range ids {
			a := models.Assignment{EmployeeID: key.EmployeeID, LocationID: id}
			if key.LocationID != 0 {
				a = models.Assignment{EmployeeID: id, LocationID: key.LocationID}
			}
			rows = append(rows, a)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("assignments replaced",
		zap.Uint("employee_id", key.EmployeeID),
		zap.Uint("location_id", key.LocationID),
		zap.Int("count", len(ids)),
	)
	return ids, nil
}

func (s *AssignmentService) checkExists(tx *gorm.DB, key AssignmentKey, ids []uint) error {
	if key.EmployeeID != 0 {
		if err := tx.First(&models.Employee{}, key.EmployeeID).Error; err != nil {
			return notFound(err, "employee")
		}
		return countMatches(tx, &models.Location{}, ids, "location")
	}
	if err := tx.First(&models.Location{}, key.LocationID).Error; err != nil {
		return notFound(err, "location")
	}
	return countMatches(tx, &models.Employee{}, ids, "employee")
}

func countMatches(tx *gorm.DB, model any, ids []uint, what string) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ids) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return nil
}

// LocationsFor returns the active locations an employee may report on.
// Reviewers may report on every active location.
func (s *AssignmentService) LocationsFor(ctx context.Context, employee *models.Employee) ([]models.Location, error) {
	var locations []models.Location
	q := s.db.WithContext(ctx).Where("status = ?", models.LocationActive)
	if !employee.CanReview() {
		q = q.Where("id IN (?)", s.db.Model(&models.Assignment{}).Select("location_id").Where("employee_id = ?", employee.ID))
	}
	err := q.Order("name").Find(&locations).Error
	return locations, err
}
