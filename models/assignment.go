package models

import "time"

// Assignment links an employee to a location they work at.
type Assignment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	EmployeeID uint      `gorm:"not null;uniqueIndex:idx_assignment_pair" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	LocationID uint      `gorm:"not null;uniqueIndex:idx_assignment_pair;index" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}
