package models

import "time"

// QRCode is a printed code attached to a location. CodeValue is the payload
// embedded in the image and is what camera scans are matched against.
type QRCode struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LocationID uint      `gorm:"not null;uniqueIndex:idx_qr_location_label" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Label      string    `gorm:"not null;size:100;uniqueIndex:idx_qr_location_label" json:"label"`
	CodeValue  string    `gorm:"not null;size:500;uniqueIndex" json:"code_value"`
}

func (QRCode) TableName() string {
	return "qr_codes"
}
