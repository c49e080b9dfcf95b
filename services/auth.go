package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"qrtrack/config"
	"qrtrack/mail"
	"qrtrack/models"
)

type AuthService struct {
	db                  *gorm.DB
	mailer              mail.Sender
	publicURL           string
	inviteExpiration    time.Duration
	loginLinkExpiration time.Duration
	log                 *zap.Logger
	now                 func() time.Time
}

func NewAuthService(cfg *config.Config, db *gorm.DB, mailer mail.Sender, log *zap.Logger) *AuthService {
	return &AuthService{
		db:                  db,
		mailer:              mailer,
		publicURL:           cfg.PublicURL,
		inviteExpiration:    cfg.InviteExpiration,
		loginLinkExpiration: cfg.LoginLinkExpiration,
		log:                 log,
		now:                 time.Now,
	}
}

// Login checks an email and password pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if employee.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !employee.IsActive() {
		return nil, ErrInactive
	}
	return &employee, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, employee *models.Employee, current, next string) error {
	if employee.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(current)); err != nil {
			return fmt.Errorf("%w: current password is incorrect", ErrInvalidInput)
		}
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(employee).Updates(map[string]any{
		"password_hash":        hash,
		"must_change_password": false,
	}).Error
	if err != nil {
		return err
	}
	employee.PasswordHash = hash
	employee.MustChangePassword = false
	return nil
}

type InviteInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CreateInvite allows an email address to sign in with one-time links. An
// existing invite for the address gets a fresh code and expiry.
func (s *AuthService) CreateInvite(ctx context.Context, actor *models.Employee, in InviteInput) (*models.Invite, error) {
	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}
	role := models.RoleEmployee
	if in.Role != "" {
		var ok bool
		if role, ok = models.ParseRole(in.Role); !ok {
			return nil, invalid("unknown role %q", in.Role)
		}
	}
	code, err := models.GenerateInviteCode()
	if err != nil {
		return nil, err
	}

	var invite models.Invite
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("email = ?", email).First(&invite).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		invite.Email = email
		invite.Name = strings.TrimSpace(in.Name)
		invite.Role = role
		invite.Code = code
		invite.CreatedBy = actor.ID
		invite.ExpiresAt = s.now().Add(s.inviteExpiration)
		invite.DeletedAt = gorm.DeletedAt{}
		return tx.Unscoped().Save(&invite).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invite created", zap.String("email", email), zap.Uint("created_by", actor.ID))
	return &invite, nil
}

func (s *AuthService) ListInvites(ctx context.Context) ([]models.Invite, error) {
	var invites []models.Invite
	err := s.db.WithContext(ctx).Preload("Creator").Order("created_at desc").Find(&invites).Error
	return invites, err
}

func (s *AuthService) DeleteInvite(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Invite{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invite %w", ErrNotFound)
	}
	return nil
}

var loginLinkTemplate = template.Must(template.New("link").Parse(`<p>Hello {{.Name}},</p>
<p><a href="{{.URL}}">Sign in to the activity reports</a></p>
<p>The link works once and expires in {{.Minutes}} minutes.</p>
`))

// RequestLoginLink mails a single-use sign-in link to an invited address
// that presents its invite code.
func (s *AuthService) RequestLoginLink(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	var invite models.Invite
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidInvite
		}
		return err
	}
	if invite.Code != strings.TrimSpace(code) || !invite.IsValid(s.now()) {
		return ErrInvalidInvite
	}

	link := models.LoginLink{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:     email,
		InviteID:  invite.ID,
		ExpiresAt: s.now().Add(s.loginLinkExpiration),
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("create login link: %w", err)
	}

	var body strings.Builder
	err := loginLinkTemplate.Execute(&body, map[string]any{
		"Name":    invite.Name,
		"URL":     s.publicURL + "/api/auth/link?token=" + url.QueryEscape(link.Token),
		"Minutes": int(s.loginLinkExpiration.Minutes()),
	})
	if err != nil {
		return err
	}
	if _, err := s.mailer.Send(ctx, mail.Message{
		To:      mail.Recipients{email},
		Subject: "Your sign-in link",
		HTML:    body.String(),
	}); err != nil {
		return fmt.Errorf("send login link: %w", err)
	}

	s.log.Info("login link sent", zap.String("email", email))
	return nil
}

// ConsumeLoginLink redeems a link token once and returns the employee it
// signs in, creating the employee from the invite on first use.
func (s *AuthService) ConsumeLoginLink(ctx context.Context, token string) (*models.Employee, error) {
	now := s.now()
	var employee models.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.LoginLink
		if err := tx.Where("token = ?", token).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidLink
			}
			return err
		}
		if !link.IsValid(now) {
			return ErrInvalidLink
		}
		res := tx.Model(&models.LoginLink{}).
			Where("id = ? AND used_at IS NULL", link.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidLink
		}

		err := tx.Unscoped().Where("email = ?", link.Email).First(&employee).Error
		if err == nil {
			if employee.DeletedAt.Valid {
				return ErrInactive
			}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var invite models.Invite
		if err := tx.First(&invite, link.InviteID).Error; err != nil {
			return ErrInvalidInvite
		}
		name := invite.Name
		if name == "" {
			name = link.Email
		}
		employee = models.Employee{
			Name:   name,
			Email:  link.Email,
			Role:   invite.Role,
			Status: models.EmployeeActive,
		}
		return tx.Create(&employee).Error
	})
	if err != nil {
		return nil, err
	}
	if !employee.IsActive() {
		return nil, ErrInactive
	}
	return &employee, nil
}
