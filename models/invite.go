package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// Invite allows an email address to request one-time sign-in links when it
// presents the matching code.
type Invite struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"uniqueIndex;not null;size:200" json:"email"`
	Code      string         `gorm:"not null;size:64" json:"code"`
	Name      string         `gorm:"size:200" json:"name"`
	Role      Role           `gorm:"not null;size:20" json:"role"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	Creator   *Employee      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
}

func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (i *Invite) IsValid(now time.Time) bool {
	return now.Before(i.ExpiresAt)
}

// LoginLink is a single-use sign-in token mailed to an invited address.
type LoginLink struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Token     string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	Email     string     `gorm:"not null;size:200;index" json:"email"`
	InviteID  uint       `gorm:"not null" json:"invite_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}

func (l *LoginLink) IsValid(now time.Time) bool {
	return l.UsedAt == nil && now.Before(l.ExpiresAt)
}
