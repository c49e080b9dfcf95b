package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"qrtrack/models"
)

// Migrate applies every pending migration in order.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260901_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Employee{}, &models.Location{}, &models.QRCode{},
					&models.Assignment{}, &models.Scan{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("scans", "assignments", "qr_codes", "locations", "employees")
			},
		},
		{
			ID: "20260905_create_report_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Report{}, &models.ReportCounter{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("report_counters", "reports")
			},
		},
		{
			ID: "20260920_create_invite_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Invite{}, &models.LoginLink{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("login_links", "invites")
			},
		},
	})
	return m.Migrate()
}
