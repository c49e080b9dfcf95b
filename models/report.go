package models

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

type ReportStatus string

const (
	ReportDraft     ReportStatus = "Draft"
	ReportReview    ReportStatus = "Review"
	ReportSubmitted ReportStatus = "Submitted"
	ReportDeleted   ReportStatus = "Deleted"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportDraft, ReportReview, ReportSubmitted, ReportDeleted:
		return true
	}
	return false
}

// Transition names a review action on a report.
type Transition string

const (
	TransitionSubmit  Transition = "submit"
	TransitionApprove Transition = "approve"
	TransitionReturn  Transition = "return"
	TransitionDelete  Transition = "delete"
	TransitionRestore Transition = "restore"
)

type transitionRule struct {
	from       []ReportStatus
	to         ReportStatus
	privileged bool
}

var transitionRules = map[Transition]transitionRule{
	TransitionSubmit:  {from: []ReportStatus{ReportDraft}, to: ReportReview},
	TransitionApprove: {from: []ReportStatus{ReportReview}, to: ReportSubmitted, privileged: true},
	TransitionReturn:  {from: []ReportStatus{ReportReview}, to: ReportDraft, privileged: true},
	TransitionDelete:  {from: []ReportStatus{ReportDraft, ReportReview}, to: ReportDeleted},
	TransitionRestore: {from: []ReportStatus{ReportDeleted}, to: ReportDraft},
}

// Rule returns the source states, target state and whether the transition
// needs a reviewer. ok is false for unknown transitions.
func (t Transition) Rule() (from []ReportStatus, to ReportStatus, privileged bool, ok bool) {
	r, ok := transitionRules[t]
	if !ok {
		return nil, "", false, false
	}
	return append([]ReportStatus(nil), r.from...), r.to, r.privileged, true
}

type ReportEntry struct {
	Time string `json:"time"`
	Note string `json:"note"`
}

type Report struct {
	ID           uint                             `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
	ReportNumber string                           `gorm:"uniqueIndex;not null;size:32" json:"report_number"`
	EmployeeID   uint                             `gorm:"not null;index" json:"employee_id"`
	Employee     *Employee                        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	LocationID   uint                             `gorm:"not null;index" json:"location_id"`
	Location     *Location                        `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Date         string                           `gorm:"not null;size:10;index" json:"date"`
	StartTime    string                           `gorm:"size:5" json:"start_time"`
	EndTime      string                           `gorm:"size:5" json:"end_time"`
	Entries      datatypes.JSONSlice[ReportEntry] `json:"entries"`
	Photos       datatypes.JSONSlice[string]      `json:"photos"`
	Status       ReportStatus                     `gorm:"not null;size:16;index" json:"status"`
	SubmittedAt  *time.Time                       `json:"submitted_at"`
	DeletedAt    *time.Time                       `gorm:"index" json:"deleted_at"`
}

func (r *Report) IsEditable() bool {
	return r.Status == ReportDraft
}

// Missing lists the fields that keep the report from being submitted.
func (r *Report) Missing() []string {
	var missing []string
	if r.Date == "" {
		missing = append(missing, "date")
	}
	if r.StartTime == "" {
		missing = append(missing, "start_time")
	}
	if r.EndTime == "" {
		missing = append(missing, "end_time")
	}
	if len(r.Entries) == 0 {
		missing = append(missing, "entries")
	}
	if r.LocationID == 0 {
		missing = append(missing, "location_id")
	}
	return missing
}

// SortEntries orders entries by their HH:MM time; equal times keep their
// relative order.
func SortEntries(entries []ReportEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time < entries[j].Time
	})
}

// ReportCounter holds the last report sequence number issued in a year.
type ReportCounter struct {
	Year int `gorm:"primaryKey;autoIncrement:false"`
	Last int `gorm:"not null"`
}
