package database

import (
	"fmt"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qrtrack/config"
	"qrtrack/models"
)

var DB *gorm.DB

// Init opens the configured database, migrates it and seeds the default admin.
func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseDebug)
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := SeedDefaultAdmin(db, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	DB = db
	return nil
}

func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// references are checked by the services, history rows outlive their codes
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = gormsqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// one writer at a time; concurrent writers hit SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func SeedDefaultAdmin(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.Employee{
		Name:               "Administrator",
		Email:              "admin@localhost",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdmin,
		Status:             models.EmployeeActive,
		MustChangePassword: true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("default admin created", zap.String("email", admin.Email), zap.String("password", "admin"))
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
