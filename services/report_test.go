package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"qrtrack/cache"
	"qrtrack/models"
	"qrtrack/storage"
)

type reportFixture struct {
	svc      *ReportService
	db       *gorm.DB
	clk      *clock
	mailer   *fakeMailer
	uploads  string
	guard    *models.Employee
	other    *models.Employee
	boss     *models.Employee
	gate     *models.Location
	unassign *models.Location
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	db := newTestDB(t)
	clk := newClock(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	mailer := &fakeMailer{}
	uploads := t.TempDir()
	svc := NewReportService(testConfig(), db, cache.NewMemory().WithClock(clk.Now), storage.NewLocal(uploads, "/uploads"), mailer, zaptest.NewLogger(t))
	svc.now = clk.Now

	f := &reportFixture{
		svc:      svc,
		db:       db,
		clk:      clk,
		mailer:   mailer,
		uploads:  uploads,
		guard:    seedEmployee(t, db, "guard", models.RoleEmployee),
		other:    seedEmployee(t, db, "other", models.RoleEmployee),
		boss:     seedEmployee(t, db, "boss", models.RoleSupervisor),
		gate:     seedLocation(t, db, "Gate"),
		unassign: seedLocation(t, db, "Warehouse"),
	}
	assign(t, db, f.guard.ID, f.gate.ID)
	assign(t, db, f.other.ID, f.gate.ID)
	return f
}

func (f *reportFixture) header() Header {
	return Header{LocationID: f.gate.ID, Date: "2026-10-01", StartTime: "08:00", EndTime: "16:00"}
}

func (f *reportFixture) completeReport(t *testing.T, owner *models.Employee) *models.Report {
	t.Helper()
	ctx := context.Background()
	r, err := f.svc.Create(ctx, owner, f.header())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	r, err = f.svc.AddEntry(ctx, owner, r.ID, models.ReportEntry{Time: "09:00", Note: "Patrol"})
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	return r
}

func TestCreateIssuesSequentialNumbers(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ReportNumber != "RPT-2026-00001" || second.ReportNumber != "RPT-2026-00002" {
		t.Fatalf("numbers = %q, %q", first.ReportNumber, second.ReportNumber)
	}
	if first.Status != models.ReportDraft {
		t.Fatalf("status = %q, want Draft", first.Status)
	}

	f.clk.Advance(100 * 24 * time.Hour)
	next, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatal(err)
	}
	if next.ReportNumber != "RPT-2027-00001" {
		t.Fatalf("new year number = %q", next.ReportNumber)
	}
}

func TestCreateConcurrentNumbersAreUnique(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.svc.Create(ctx, f.guard, f.header())
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			numbers <- r.ReportNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		if seen[num] {
			t.Fatalf("duplicate report number %q", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d numbers, want %d", len(seen), n)
	}
}

func TestCreateValidatesHeader(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	bad := []Header{
		{LocationID: f.gate.ID, Date: "10/01/2026", StartTime: "08:00", EndTime: "16:00"},
		{LocationID: f.gate.ID, Date: "2026-10-01", StartTime: "8:00", EndTime: "16:00"},
		{LocationID: f.gate.ID, Date: "2026-10-01", StartTime: "08:00", EndTime: "25:00"},
		{Date: "2026-10-01", StartTime: "08:00", EndTime: "16:00"},
	}
	for i, h := range bad {
		if _, err := f.svc.Create(ctx, f.guard, h); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: error = %v, want ErrInvalidInput", i, err)
		}
	}

	h := f.header()
	h.LocationID = 999
	if _, err := f.svc.Create(ctx, f.guard, h); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown location error = %v", err)
	}

	h.LocationID = f.unassign.ID
	if _, err := f.svc.Create(ctx, f.guard, h); !errors.Is(err, ErrForbidden) {
		t.Errorf("unassigned location error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Create(ctx, f.boss, h); err != nil {
		t.Errorf("supervisor on any location error = %v", err)
	}
}

func TestCreateRejectsInactiveLocation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	if err := f.db.Model(f.gate).Update("status", models.LocationInactive).Error; err != nil {
		t.Fatal(err)
	}

	for _, actor := range []*models.Employee{f.guard, f.boss} {
		if _, err := f.svc.Create(ctx, actor, f.header()); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Create() by %s on inactive location error = %v, want ErrInvalidInput", actor.Name, err)
		}
	}
	if _, err := f.svc.SaveDraft(ctx, f.guard, Draft{Header: f.header()}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SaveDraft() on inactive location error = %v, want ErrInvalidInput", err)
	}

	var n int64
	f.db.Model(&models.Report{}).Count(&n)
	if n != 0 {
		t.Fatalf("reports = %d, want 0", n)
	}
}

func TestEntriesAreValidatedAndSorted(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatal(err)
	}

	r, err = f.svc.ReplaceEntries(ctx, f.guard, r.ID, []models.ReportEntry{
		{Time: "14:00", Note: "Lock up"},
		{Time: "09:00", Note: " Open gate "},
		{Time: "11:30", Note: "Patrol"},
	})
	if err != nil {
		t.Fatalf("ReplaceEntries() error = %v", err)
	}
	if got := []string{r.Entries[0].Time, r.Entries[1].Time, r.Entries[2].Time}; strings.Join(got, ",") != "09:00,11:30,14:00" {
		t.Fatalf("entries not sorted: %v", got)
	}
	if r.Entries[0].Note != "Open gate" {
		t.Fatalf("note not trimmed: %q", r.Entries[0].Note)
	}

	r, err = f.svc.AddEntry(ctx, f.guard, r.ID, models.ReportEntry{Time: "10:00", Note: "Delivery"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Entries[1].Note != "Delivery" {
		t.Fatalf("added entry not in time order: %+v", r.Entries)
	}

	r, err = f.svc.DeleteEntry(ctx, f.guard, r.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Entries) != 3 || r.Entries[0].Note != "Delivery" {
		t.Fatalf("after delete: %+v", r.Entries)
	}

	if _, err := f.svc.DeleteEntry(ctx, f.guard, r.ID, 7); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out of range delete error = %v", err)
	}
	if _, err := f.svc.AddEntry(ctx, f.guard, r.ID, models.ReportEntry{Time: "10:00"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty note error = %v", err)
	}
	if _, err := f.svc.AddEntry(ctx, f.other, r.ID, models.ReportEntry{Time: "10:00", Note: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign report error = %v", err)
	}

	stored, err := f.svc.Get(ctx, f.guard, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Entries) != 3 {
		t.Fatalf("stored entries = %+v", stored.Entries)
	}
}

func TestEntriesLockedOutsideDraft(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	r := f.completeReport(t, f.guard)

	if _, err := f.svc.Transition(ctx, f.guard, r.ID, models.TransitionSubmit); err != nil {
		t.Fatalf("submit error = %v", err)
	}
	if _, err := f.svc.AddEntry(ctx, f.guard, r.ID, models.ReportEntry{Time: "10:00", Note: "late"}); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("AddEntry() on Review error = %v, want ErrNotEditable", err)
	}
}

func TestDraftSlotAndSaveDraft(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	if _, err := f.svc.LoadDraft(ctx, f.guard.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadDraft() empty error = %v", err)
	}

	d := Draft{Header: f.header(), Entries: []models.ReportEntry{{Time: "12:00", Note: "Lunch"}, {Time: "08:30", Note: "Start"}}}
	if err := f.svc.StashDraft(ctx, f.guard.ID, d); err != nil {
		t.Fatal(err)
	}
	d2 := d
	d2.Entries = []models.ReportEntry{{Time: "09:00", Note: "Overwritten"}}
	if err := f.svc.StashDraft(ctx, f.guard.ID, d2); err != nil {
		t.Fatal(err)
	}
	loaded, err := f.svc.LoadDraft(ctx, f.guard.ID)
	if err != nil {
		t.Fatalf("LoadDraft() error = %v", err)
	}
	if len(loaded.Entries) != 1 || loaded.Entries[0].Note != "Overwritten" {
		t.Fatalf("draft slot = %+v, want the latest stash", loaded)
	}

	created, err := f.svc.SaveDraft(ctx, f.guard, d)
	if err != nil {
		t.Fatalf("SaveDraft() insert error = %v", err)
	}
	if created.ID == 0 || created.Entries[0].Time != "08:30" {
		t.Fatalf("created = %+v", created)
	}
	if _, err := f.svc.LoadDraft(ctx, f.guard.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft slot not cleared after save: %v", err)
	}

	d.ReportID = created.ID
	d.Header.EndTime = "18:00"
	updated, err := f.svc.SaveDraft(ctx, f.guard, d)
	if err != nil {
		t.Fatalf("SaveDraft() update error = %v", err)
	}
	if updated.ID != created.ID || updated.EndTime != "18:00" || updated.ReportNumber != created.ReportNumber {
		t.Fatalf("updated = %+v", updated)
	}

	var count int64
	f.db.Model(&models.Report{}).Count(&count)
	if count != 1 {
		t.Fatalf("reports = %d, want 1", count)
	}

	f.clk.Advance(2 * time.Hour)
	f.svc.StashDraft(ctx, f.guard.ID, d)
	f.clk.Advance(2 * time.Hour)
	if _, err := f.svc.LoadDraft(ctx, f.guard.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft slot should expire: %v", err)
	}
}

func photo(name, contentType, body string) PhotoFile {
	return PhotoFile{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func TestAttachPhotosKeepsSuccessfulSubset(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatal(err)
	}

	broken := PhotoFile{
		Filename:    "broken.jpg",
		ContentType: "image/jpeg",
		Open:        func() (io.ReadCloser, error) { return nil, errors.New("disk gone") },
	}
	r, err = f.svc.AttachPhotos(ctx, f.guard, r.ID, []PhotoFile{
		photo("a.jpg", "image/jpeg", "aaa"),
		broken,
		photo("notes.txt", "text/plain", "nope"),
		photo("b.png", "image/png", "bbb"),
	})
	if err == nil {
		t.Fatalf("AttachPhotos() should report failed files")
	}
	if !strings.Contains(err.Error(), "broken.jpg") || !strings.Contains(err.Error(), "notes.txt") {
		t.Fatalf("error does not name failed files: %v", err)
	}
	if r == nil || len(r.Photos) != 2 {
		t.Fatalf("report photos = %v, want 2", r)
	}
	for _, url := range r.Photos {
		if !strings.HasPrefix(url, "/uploads/reports/") {
			t.Fatalf("photo url = %q", url)
		}
	}

	stored, err := f.svc.Get(ctx, f.guard, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Photos) != 2 {
		t.Fatalf("stored photos = %v", stored.Photos)
	}
}

func TestTransitions(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Create(ctx, f.guard, f.header())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Transition(ctx, f.guard, empty.ID, models.TransitionSubmit); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("submit without entries error = %v, want ErrIncomplete", err)
	}

	r := f.completeReport(t, f.guard)
	if _, err := f.svc.Transition(ctx, f.other, r.ID, models.TransitionSubmit); !errors.Is(err, ErrForbidden) {
		t.Fatalf("submit by other employee error = %v", err)
	}
	r, err = f.svc.Transition(ctx, f.guard, r.ID, models.TransitionSubmit)
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}
	if r.Status != models.ReportReview || r.SubmittedAt == nil {
		t.Fatalf("after submit: status %q submitted_at %v", r.Status, r.SubmittedAt)
	}

	if _, err := f.svc.Transition(ctx, f.guard, r.ID, models.TransitionApprove); !errors.Is(err, ErrForbidden) {
		t.Fatalf("approve by employee error = %v, want ErrForbidden", err)
	}

	r, err = f.svc.Transition(ctx, f.boss, r.ID, models.TransitionReturn)
	if err != nil {
		t.Fatalf("return error = %v", err)
	}
	if r.Status != models.ReportDraft || r.SubmittedAt != nil {
		t.Fatalf("after return: %q %v", r.Status, r.SubmittedAt)
	}

	if _, err := f.svc.Transition(ctx, f.boss, r.ID, models.TransitionApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve from Draft error = %v, want ErrInvalidTransition", err)
	}

	f.svc.Transition(ctx, f.guard, r.ID, models.TransitionSubmit)
	r, err = f.svc.Transition(ctx, f.boss, r.ID, models.TransitionApprove)
	if err != nil {
		t.Fatalf("approve error = %v", err)
	}
	if r.Status != models.ReportSubmitted {
		t.Fatalf("after approve: %q", r.Status)
	}

	for _, tr := range []models.Transition{models.TransitionDelete, models.TransitionReturn, models.TransitionSubmit, models.TransitionRestore} {
		if _, err := f.svc.Transition(ctx, f.boss, r.ID, tr); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s on Submitted error = %v, want ErrInvalidTransition", tr, err)
		}
	}
}

func TestDeleteRestoreAndPurge(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	keep := f.completeReport(t, f.guard)
	gone := f.completeReport(t, f.guard)

	if _, err := f.svc.Transition(ctx, f.guard, keep.ID, models.TransitionSubmit); err != nil {
		t.Fatalf("submit error = %v", err)
	}
	r, err := f.svc.Transition(ctx, f.guard, keep.ID, models.TransitionDelete)
	if err != nil {
		t.Fatalf("delete error = %v", err)
	}
	if r.Status != models.ReportDeleted || r.DeletedAt == nil {
		t.Fatalf("after delete: %q %v", r.Status, r.DeletedAt)
	}
	r, err = f.svc.Transition(ctx, f.guard, keep.ID, models.TransitionRestore)
	if err != nil {
		t.Fatalf("restore error = %v", err)
	}
	if r.Status != models.ReportDraft || r.DeletedAt != nil || r.SubmittedAt != nil {
		t.Fatalf("after restore: %q deleted_at=%v submitted_at=%v", r.Status, r.DeletedAt, r.SubmittedAt)
	}

	if _, err := f.svc.Transition(ctx, f.guard, gone.ID, models.TransitionDelete); err != nil {
		t.Fatal(err)
	}

	f.clk.Advance(7 * 24 * time.Hour)
	deleted, err := f.svc.List(ctx, f.guard, ListFilter{Tab: TabDeleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 1 {
		t.Fatalf("deleted tab before retention = %d, want 1", len(deleted))
	}

	f.clk.Advance(2 * 24 * time.Hour)
	deleted, err = f.svc.List(ctx, f.guard, ListFilter{Tab: TabDeleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 0 {
		t.Fatalf("deleted tab after retention = %d, want 0", len(deleted))
	}
	if _, err := f.svc.Get(ctx, f.guard, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("purged report still retrievable: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.guard, keep.ID); err != nil {
		t.Fatalf("restored report lost: %v", err)
	}
}

func TestListTabsAndVisibility(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	draft := f.completeReport(t, f.guard)
	review := f.completeReport(t, f.guard)
	done := f.completeReport(t, f.guard)
	mine := f.completeReport(t, f.other)
	f.svc.Transition(ctx, f.guard, review.ID, models.TransitionSubmit)
	f.svc.Transition(ctx, f.guard, done.ID, models.TransitionSubmit)
	f.svc.Transition(ctx, f.boss, done.ID, models.TransitionApprove)

	got, err := f.svc.List(ctx, f.guard, ListFilter{Tab: TabDraft})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("draft tab = %d reports, want 2 (Draft and Review)", len(got))
	}
	for _, r := range got {
		if r.ID != draft.ID && r.ID != review.ID {
			t.Fatalf("unexpected report %d in draft tab", r.ID)
		}
	}

	got, _ = f.svc.List(ctx, f.guard, ListFilter{Tab: TabCompleted})
	if len(got) != 1 || got[0].ID != done.ID {
		t.Fatalf("completed tab = %+v", got)
	}

	got, _ = f.svc.List(ctx, f.other, ListFilter{})
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("employee sees others' reports: %+v", got)
	}

	got, _ = f.svc.List(ctx, f.boss, ListFilter{})
	if len(got) != 4 {
		t.Fatalf("supervisor sees %d reports, want 4", len(got))
	}
	got, _ = f.svc.List(ctx, f.boss, ListFilter{EmployeeID: f.other.ID})
	if len(got) != 1 {
		t.Fatalf("supervisor employee filter = %d, want 1", len(got))
	}

	got, _ = f.svc.List(ctx, f.boss, ListFilter{From: "2026-10-02"})
	if len(got) != 0 {
		t.Fatalf("date filter = %d, want 0", len(got))
	}

	if _, err := f.svc.List(ctx, f.boss, ListFilter{Tab: "archive"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown tab error = %v", err)
	}
	if _, err := f.svc.Get(ctx, f.other, draft.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Get() of another employee's report error = %v", err)
	}
}

func TestSavedFilter(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	empty, err := f.svc.LoadFilter(ctx, f.guard.ID)
	if err != nil || empty != (ListFilter{}) {
		t.Fatalf("LoadFilter() = %+v, %v", empty, err)
	}

	want := ListFilter{Status: models.ReportReview, From: "2026-09-01", To: "2026-09-30"}
	if err := f.svc.SaveFilter(ctx, f.guard.ID, want); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.LoadFilter(ctx, f.guard.ID)
	if err != nil || got != want {
		t.Fatalf("LoadFilter() = %+v, %v", got, err)
	}

	if err := f.svc.SaveFilter(ctx, f.guard.ID, ListFilter{Status: "Archived"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("SaveFilter() bad status error = %v", err)
	}

	f.svc.ClearFilter(ctx, f.guard.ID)
	got, _ = f.svc.LoadFilter(ctx, f.guard.ID)
	if got != (ListFilter{}) {
		t.Fatalf("filter after clear = %+v", got)
	}
}

func TestExports(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	f.completeReport(t, f.guard)
	f.completeReport(t, f.other)

	var buf bytes.Buffer
	if err := f.svc.ExportCSV(ctx, f.guard, ListFilter{}, &buf); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee export error = %v, want ErrForbidden", err)
	}

	buf.Reset()
	if err := f.svc.ExportCSV(ctx, f.boss, ListFilter{}, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "Report Number" || records[1][0] != "RPT-2026-00001" || records[1][8] != "09:00 Patrol" {
		t.Fatalf("csv = %v", records)
	}

	buf.Reset()
	if err := f.svc.ExportXLSX(ctx, f.boss, ListFilter{}, &buf); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	x, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer x.Close()
	rows, err := x.GetRows("Reports")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "Report Number" || rows[2][1] != "other" {
		t.Fatalf("xlsx rows = %v", rows)
	}
	if width, err := x.GetColWidth("Reports", "I"); err != nil || width != 60 {
		t.Errorf("activity column width = %v, %v, want 60", width, err)
	}
	styleID, err := x.GetCellStyle("Reports", "A1")
	if err != nil {
		t.Fatal(err)
	}
	style, err := x.GetStyle(styleID)
	if err != nil || style.Font == nil || !style.Font.Bold {
		t.Errorf("header cell style = %+v, %v, want bold font", style, err)
	}
}

func TestEmailReport(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	r := f.completeReport(t, f.guard)

	if _, err := f.svc.EmailReport(ctx, f.guard, r.ID, []string{"boss@example.com"}); err != nil {
		t.Fatalf("EmailReport() error = %v", err)
	}
	msg := f.mailer.last()
	if msg.To[0] != "boss@example.com" || !strings.Contains(msg.Subject, r.ReportNumber) {
		t.Fatalf("message = %+v", msg)
	}
	if !strings.Contains(msg.HTML, "Patrol") || !strings.Contains(msg.HTML, "Gate") {
		t.Fatalf("html body missing report content")
	}

	if _, err := f.svc.EmailReport(ctx, f.other, r.ID, []string{"x@example.com"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("EmailReport() by other employee error = %v", err)
	}
}
