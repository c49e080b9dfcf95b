package models

import "time"

const (
	LocationActive   = "active"
	LocationInactive = "inactive"
)

type Location struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null;size:200" json:"name"`
	Address   string    `gorm:"size:300" json:"address"`
	Status    string    `gorm:"not null;size:20;default:active" json:"status"`
	QRCodes   []QRCode  `gorm:"foreignKey:LocationID" json:"qr_codes,omitempty"`
}
