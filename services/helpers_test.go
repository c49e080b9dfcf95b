package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"qrtrack/config"
	"qrtrack/database"
	"qrtrack/mail"
	"qrtrack/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.sqlite"), false)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		PublicURL:           "https://reports.test",
		InviteExpiration:    24 * time.Hour,
		LoginLinkExpiration: 15 * time.Minute,
		ScanLockWindow:      10 * time.Second,
		DeletedRetention:    8 * 24 * time.Hour,
		DraftTTL:            time.Hour,
	}
}

func seedEmployee(t *testing.T, db *gorm.DB, name string, role models.Role) *models.Employee {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	e := &models.Employee{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.EmployeeActive,
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return e
}

func seedLocation(t *testing.T, db *gorm.DB, name string) *models.Location {
	t.Helper()
	l := &models.Location{Name: name, Status: models.LocationActive}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return l
}

func seedQRCode(t *testing.T, db *gorm.DB, locationID uint, label, value string) *models.QRCode {
	t.Helper()
	c := &models.QRCode{LocationID: locationID, Label: label, CodeValue: value}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed qr code: %v", err)
	}
	return c
}

func assign(t *testing.T, db *gorm.DB, employeeID, locationID uint) {
	t.Helper()
	if err := db.Create(&models.Assignment{EmployeeID: employeeID, LocationID: locationID}).Error; err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
}

// fakeMailer records messages instead of sending them.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) (*mail.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &mail.Result{ID: "fake"}, nil
}

func (f *fakeMailer) last() mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return mail.Message{}
	}
	return f.sent[len(f.sent)-1]
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock {
	return &clock{t: t}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
