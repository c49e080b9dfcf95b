package models

import "time"

type Scan struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	QRCodeID   uint      `gorm:"not null;index" json:"qr_code_id"`
	QRCode     *QRCode   `gorm:"foreignKey:QRCodeID" json:"qr_code,omitempty"`
	LocationID uint      `gorm:"not null;index" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Payload    string    `gorm:"not null;size:500" json:"payload"`
	Timestamp  time.Time `gorm:"column:scanned_at;not null;index" json:"timestamp"`
}
