package models

import (
	"reflect"
	"testing"
	"time"
)

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		transition Transition
		from       []ReportStatus
		to         ReportStatus
		privileged bool
	}{
		{TransitionSubmit, []ReportStatus{ReportDraft}, ReportReview, false},
		{TransitionApprove, []ReportStatus{ReportReview}, ReportSubmitted, true},
		{TransitionReturn, []ReportStatus{ReportReview}, ReportDraft, true},
		{TransitionDelete, []ReportStatus{ReportDraft, ReportReview}, ReportDeleted, false},
		{TransitionRestore, []ReportStatus{ReportDeleted}, ReportDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.transition), func(t *testing.T) {
			from, to, privileged, ok := tt.transition.Rule()
			if !ok {
				t.Fatalf("Rule() ok = false")
			}
			if !reflect.DeepEqual(from, tt.from) {
				t.Errorf("from = %v, want %v", from, tt.from)
			}
			if to != tt.to {
				t.Errorf("to = %q, want %q", to, tt.to)
			}
			if privileged != tt.privileged {
				t.Errorf("privileged = %v, want %v", privileged, tt.privileged)
			}
		})
	}

	if _, _, _, ok := Transition("purge").Rule(); ok {
		t.Errorf("unknown transition should not have a rule")
	}
}

func TestSubmittedIsTerminal(t *testing.T) {
	for tr, rule := range transitionRules {
		for _, from := range rule.from {
			if from == ReportSubmitted {
				t.Errorf("transition %q leaves Submitted", tr)
			}
		}
	}
}

func TestReportMissing(t *testing.T) {
	r := Report{}
	want := []string{"date", "start_time", "end_time", "entries", "location_id"}
	if got := r.Missing(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}

	r = Report{
		Date:       "2026-10-19",
		StartTime:  "08:00",
		EndTime:    "16:00",
		LocationID: 3,
		Entries:    []ReportEntry{{Time: "09:00", Note: "rounds"}},
	}
	if got := r.Missing(); len(got) != 0 {
		t.Fatalf("Missing() = %v, want none", got)
	}
}

func TestSortEntries(t *testing.T) {
	entries := []ReportEntry{
		{Time: "14:00", Note: "c"},
		{Time: "08:30", Note: "a"},
		{Time: "14:00", Note: "d"},
		{Time: "09:15", Note: "b"},
	}
	SortEntries(entries)

	var notes string
	for _, e := range entries {
		notes += e.Note
	}
	if notes != "abcd" {
		t.Fatalf("sorted notes = %q, want %q", notes, "abcd")
	}
}

func TestEmployeePermissions(t *testing.T) {
	admin := &Employee{ID: 1, Role: RoleAdmin}
	supervisor := &Employee{ID: 2, Role: RoleSupervisor}
	worker := &Employee{ID: 3, Role: RoleEmployee}

	if !admin.CanAdminister() || supervisor.CanAdminister() || worker.CanAdminister() {
		t.Errorf("only admins administer")
	}
	if !supervisor.CanReview() || worker.CanReview() {
		t.Errorf("supervisors review, employees do not")
	}
	if !worker.CanManageReportOf(3) || worker.CanManageReportOf(4) {
		t.Errorf("employees manage only their own reports")
	}
	if !supervisor.CanManageReportOf(3) {
		t.Errorf("supervisors manage any report")
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "supervisor", "employee", "user"} {
		if _, ok := ParseRole(s); !ok {
			t.Errorf("ParseRole(%q) rejected", s)
		}
	}
	for _, s := range []string{"", "ADMIN", "hr"} {
		if _, ok := ParseRole(s); ok {
			t.Errorf("ParseRole(%q) accepted", s)
		}
	}
}

func TestLoginLinkIsValid(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	link := LoginLink{ExpiresAt: now.Add(time.Minute)}
	if !link.IsValid(now) {
		t.Fatalf("fresh link should be valid")
	}
	used := now
	link.UsedAt = &used
	if link.IsValid(now) {
		t.Fatalf("used link should be invalid")
	}
	link = LoginLink{ExpiresAt: now}
	if link.IsValid(now) {
		t.Fatalf("expired link should be invalid")
	}
}
