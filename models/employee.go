package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
	RoleUser       Role = "user"
)

// ParseRole accepts the four known roles, case-sensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleSupervisor, RoleEmployee, RoleUser:
		return Role(s), true
	}
	return "", false
}

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

func ParseEmployeeStatus(s string) (EmployeeStatus, bool) {
	switch EmployeeStatus(s) {
	case EmployeeActive, EmployeeInactive:
		return EmployeeStatus(s), true
	}
	return "", false
}

type Employee struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Name               string         `gorm:"not null;size:200" json:"name"`
	Email              string         `gorm:"uniqueIndex;not null;size:200" json:"email"`
	PasswordHash       string         `gorm:"size:100" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	Status             EmployeeStatus `gorm:"not null;size:20;default:active" json:"status"`
	MustChangePassword bool           `gorm:"default:false" json:"must_change_password"`
}

func (e *Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Email
}

func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

func (e *Employee) IsSupervisor() bool {
	return e.Role == RoleSupervisor
}

func (e *Employee) IsActive() bool {
	return e.Status == EmployeeActive
}

// CanReview reports whether the employee may approve or return reports and
// see every employee's reports and scans.
func (e *Employee) CanReview() bool {
	return e.IsAdmin() || e.IsSupervisor()
}

func (e *Employee) CanManageReportOf(employeeID uint) bool {
	if e.CanReview() {
		return true
	}
	return e.ID == employeeID
}

func (e *Employee) CanAdminister() bool {
	return e.IsAdmin()
}
