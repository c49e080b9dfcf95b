package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qrtrack/cache"
	"qrtrack/config"
	"qrtrack/mail"
	"qrtrack/models"
	"qrtrack/storage"
)

type ReportService struct {
	db        *gorm.DB
	cache     cache.Store
	bucket    storage.Bucket
	mailer    mail.Sender
	retention time.Duration
	draftTTL  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewReportService(cfg *config.Config, db *gorm.DB, store cache.Store, bucket storage.Bucket, mailer mail.Sender, log *zap.Logger) *ReportService {
	return &ReportService{
		db:        db,
		cache:     store,
		bucket:    bucket,
		mailer:    mailer,
		retention: cfg.DeletedRetention,
		draftTTL:  cfg.DraftTTL,
		log:       log,
		now:       time.Now,
	}
}

// Header is the first step of the report form.
type Header struct {
	LocationID uint   `json:"location_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (h Header) validate() error {
	if h.LocationID == 0 {
		return invalid("location is required")
	}
	if _, err := parseDate(h.Date); err != nil {
		return err
	}
	if err := checkClock("start_time", h.StartTime); err != nil {
		return err
	}
	return checkClock("end_time", h.EndTime)
}

// Draft is an in-progress report form kept between page loads.
type Draft struct {
	ReportID uint                 `json:"report_id,omitempty"`
	Header   Header               `json:"header"`
	Entries  []models.ReportEntry `json:"entries"`
	Photos   []string             `json:"photos"`
}

func cleanEntries(entries []models.ReportEntry) ([]models.ReportEntry, error) {
	out := make([]models.ReportEntry, 0, len(entries))
	for i, e := range entries {
		e.Time = strings.TrimSpace(e.Time)
		e.Note = strings.TrimSpace(e.Note)
		if e.Time == "" || e.Note == "" {
			return nil, invalid("entry %d needs both a time and a note", i+1)
		}
		if !validClock(e.Time) {
			return nil, invalid("entry %d time %q must be HH:MM", i+1, e.Time)
		}
		out = append(out, e)
	}
	models.SortEntries(out)
	return out, nil
}

// Create validates the header and stores a new Draft report with a freshly
// issued report number.
func (s *ReportService) Create(ctx context.Context, actor *models.Employee, h Header) (*models.Report, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}

	var report *models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		report, err = s.create(tx, actor, h, nil, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("report created",
		zap.Uint("report_id", report.ID),
		zap.String("report_number", report.ReportNumber),
		zap.Uint("employee_id", actor.ID),
	)
	return report, nil
}

func (s *ReportService) create(tx *gorm.DB, actor *models.Employee, h Header, entries []models.ReportEntry, photos []string) (*models.Report, error) {
	if err := checkLocationAccess(tx, actor, h.LocationID); err != nil {
		return nil, err
	}

	number, err := nextReportNumber(tx, s.now().Year())
	if err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []models.ReportEntry{}
	}
	if photos == nil {
		photos = []string{}
	}
	report := &models.Report{
		ReportNumber: number,
		EmployeeID:   actor.ID,
		LocationID:   h.LocationID,
		Date:         h.Date,
		StartTime:    h.StartTime,
		EndTime:      h.EndTime,
		Entries:      entries,
		Photos:       photos,
		Status:       models.ReportDraft,
	}
	if err := tx.Create(report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return report, nil
}

// checkLocationAccess requires the location to exist and be active and, for
// non-reviewers, to be assigned to the actor.
func checkLocationAccess(tx *gorm.DB, actor *models.Employee, locationID uint) error {
	var location models.Location
	if err := tx.First(&location, locationID).Error; err != nil {
		return notFound(err, "location")
	}
	if location.Status != models.LocationActive {
		return invalid("location %q is inactive", location.Name)
	}
	if actor.CanReview() {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Assignment{}).
		Where("employee_id = ? AND location_id = ?", actor.ID, locationID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: location is not assigned to you", ErrForbidden)
	}
	return nil
}

// nextReportNumber bumps the per-year counter. The upsert holds the counter
// row lock until tx ends, so concurrent reports get distinct numbers.
func nextReportNumber(tx *gorm.DB, year int) (string, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last": gorm.Expr("? + 1", clause.Column{Table: "report_counters", Name: "last"}),
		}),
	}).Create(&models.ReportCounter{Year: year, Last: 1}).Error
	if err != nil {
		return "", fmt.Errorf("bump report counter: %w", err)
	}

	var counter models.ReportCounter
	if err := tx.Where("report_counters.year = ?", year).First(&counter).Error; err != nil {
		return "", fmt.Errorf("read report counter: %w", err)
	}
	return fmt.Sprintf("RPT-%d-%05d", year, counter.Last), nil
}

func draftKey(employeeID uint) string {
	return fmt.Sprintf("draft:%d", employeeID)
}

// StashDraft overwrites the employee's single draft slot.
func (s *ReportService) StashDraft(ctx context.Context, employeeID uint, d Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, draftKey(employeeID), string(data), s.draftTTL)
}

func (s *ReportService) LoadDraft(ctx context.Context, employeeID uint) (*Draft, error) {
	raw, ok, err := s.cache.Get(ctx, draftKey(employeeID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("draft %w", ErrNotFound)
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &d, nil
}

func (s *ReportService) ClearDraft(ctx context.Context, employeeID uint) error {
	return s.cache.Delete(ctx, draftKey(employeeID))
}

// SaveDraft persists a draft form: a new report when no id is known yet,
// otherwise an update of the existing Draft report. The draft slot is
// cleared afterwards.
func (s *ReportService) SaveDraft(ctx context.Context, actor *models.Employee, d Draft) (*models.Report, error) {
	if err := d.Header.validate(); err != nil {
		return nil, err
	}
	entries, err := cleanEntries(d.Entries)
	if err != nil {
		return nil, err
	}
	photos := d.Photos
	if photos == nil {
		photos = []string{}
	}

	var report *models.Report
	if d.ReportID == 0 {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			report, err = s.create(tx, actor, d.Header, entries, photos)
			return err
		})
	} else {
		report, err = s.mutateDraft(ctx, actor, d.ReportID, func(tx *gorm.DB, r *models.Report) error {
			if r.LocationID != d.Header.LocationID {
				if err := checkLocationAccess(tx, actor, d.Header.LocationID); err != nil {
					return err
				}
			}
			r.LocationID = d.Header.LocationID
			r.Date = d.Header.Date
			r.StartTime = d.Header.StartTime
			r.EndTime = d.Header.EndTime
			r.Entries = entries
			r.Photos = photos
			return nil
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.ClearDraft(ctx, actor.ID); err != nil {
		s.log.Warn("clear draft slot", zap.Uint("employee_id", actor.ID), zap.Error(err))
	}
	return report, nil
}

// mutateDraft loads a report the actor may edit, applies fn and writes the
// editable columns back only if the report is still a Draft.
func (s *ReportService) mutateDraft(ctx context.Context, actor *models.Employee, id uint, fn func(tx *gorm.DB, r *models.Report) error) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, id).Error; err != nil {
			return notFound(err, "report")
		}
		if !actor.CanManageReportOf(report.EmployeeID) {
			return ErrForbidden
		}
		if !report.IsEditable() {
			return ErrNotEditable
		}
		if err := fn(tx, &report); err != nil {
			return err
		}

		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", id, models.ReportDraft).
			Updates(map[string]any{
				"location_id": report.LocationID,
				"date":        report.Date,
				"start_time":  report.StartTime,
				"end_time":    report.EndTime,
				"entries":     report.Entries,
				"photos":      report.Photos,
			})
		if res.Error != nil {
			return fmt.Errorf("update report: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotEditable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) ReplaceEntries(ctx context.Context, actor *models.Employee, id uint, entries []models.ReportEntry) (*models.Report, error) {
	cleaned, err := cleanEntries(entries)
	if err != nil {
		return nil, err
	}
	return s.mutateDraft(ctx, actor, id, func(_ *gorm.DB, r *models.Report) error {
		r.Entries = cleaned
		return nil
	})
}

func (s *ReportService) AddEntry(ctx context.Context, actor *models.Employee, id uint, entry models.ReportEntry) (*models.Report, error) {
	cleaned, err := cleanEntries([]models.ReportEntry{entry})
	if err != nil {
		return nil, err
	}
	return s.mutateDraft(ctx, actor, id, func(_ *gorm.DB, r *models.Report) error {
		entries := append([]models.ReportEntry{}, r.Entries...)
		entries = append(entries, cleaned[0])
		models.SortEntries(entries)
		r.Entries = entries
		return nil
	})
}

// DeleteEntry removes the entry at index in the stored (time-sorted) order.
func (s *ReportService) DeleteEntry(ctx context.Context, actor *models.Employee, id uint, index int) (*models.Report, error) {
	return s.mutateDraft(ctx, actor, id, func(_ *gorm.DB, r *models.Report) error {
		if index < 0 || index >= len(r.Entries) {
			return invalid("entry index %d out of range", index)
		}
		entries := append([]models.ReportEntry{}, r.Entries[:index]...)
		r.Entries = append(entries, r.Entries[index+1:]...)
		return nil
	})
}

// PhotoFile is one uploaded photo; Open is called once, right before upload.
type PhotoFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// AttachPhotos uploads files one at a time and appends every successful URL
// to the report. Failed files are reported in the returned error while the
// report is still saved with the photos that made it.
func (s *ReportService) AttachPhotos(ctx context.Context, actor *models.Employee, id uint, files []PhotoFile) (*models.Report, error) {
	report, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !report.IsEditable() {
		return nil, ErrNotEditable
	}
	if len(files) == 0 {
		return nil, invalid("no photos uploaded")
	}

	var (
		urls []string
		errs []error
	)
	for _, f := range files {
		url, err := s.upload(ctx, id, f)
		if err != nil {
			s.log.Warn("photo upload failed", zap.Uint("report_id", id), zap.String("file", f.Filename), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f.Filename, err))
			continue
		}
		urls = append(urls, url)
	}

	if len(urls) > 0 {
		report, err = s.mutateDraft(ctx, actor, id, func(_ *gorm.DB, r *models.Report) error {
			r.Photos = append(append([]string{}, r.Photos...), urls...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return report, errors.Join(errs...)
}

func (s *ReportService) upload(ctx context.Context, reportID uint, f PhotoFile) (string, error) {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return "", invalid("not an image (%s)", f.ContentType)
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.bucket.Put(ctx, storage.ObjectName(reportID, f.Filename), f.ContentType, rc, f.Size)
}

// Get loads a report with its employee and location. Non-reviewers only see
// their own reports.
func (s *ReportService) Get(ctx context.Context, actor *models.Employee, id uint) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).Preload("Employee").Preload("Location").First(&report, id).Error
	if err != nil {
		return nil, notFound(err, "report")
	}
	if !actor.CanManageReportOf(report.EmployeeID) {
		return nil, ErrForbidden
	}
	return &report, nil
}

const (
	TabDraft     = "draft"
	TabCompleted = "completed"
	TabDeleted   = "deleted"
)

var tabStatuses = map[string][]models.ReportStatus{
	TabDraft:     {models.ReportDraft, models.ReportReview},
	TabCompleted: {models.ReportSubmitted},
	TabDeleted:   {models.ReportDeleted},
}

// ListFilter narrows the report log. From and To are inclusive dates.
type ListFilter struct {
	Tab        string              `json:"tab,omitempty"`
	Status     models.ReportStatus `json:"status,omitempty"`
	From       string              `json:"from,omitempty"`
	To         string              `json:"to,omitempty"`
	EmployeeID uint                `json:"employee_id,omitempty"`
	LocationID uint                `json:"location_id,omitempty"`
}

func (f ListFilter) validate() error {
	if f.Tab != "" {
		if _, ok := tabStatuses[f.Tab]; !ok {
			return invalid("unknown tab %q", f.Tab)
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return invalid("unknown status %q", f.Status)
	}
	if f.From != "" {
		if _, err := parseDate(f.From); err != nil {
			return err
		}
	}
	if f.To != "" {
		if _, err := parseDate(f.To); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReportService) query(ctx context.Context, actor *models.Employee, f ListFilter) (*gorm.DB, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Employee").Preload("Location")
	if !actor.CanReview() {
		q = q.Where("employee_id = ?", actor.ID)
	} else if f.EmployeeID != 0 {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Tab != "" {
		q = q.Where("status IN ?", tabStatuses[f.Tab])
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.From != "" {
		q = q.Where("reports.date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("reports.date <= ?", f.To)
	}
	return q, nil
}

// List purges expired deleted reports, then returns the matching reports,
// newest date first.
func (s *ReportService) List(ctx context.Context, actor *models.Employee, f ListFilter) ([]models.Report, error) {
	if _, err := s.Purge(ctx); err != nil {
		s.log.Warn("purge deleted reports", zap.Error(err))
	}

	q, err := s.query(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := q.Order("reports.date desc, reports.id desc").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func filterKey(employeeID uint) string {
	return fmt.Sprintf("reportfilter:%d", employeeID)
}

// SaveFilter remembers the report log filter of an employee.
func (s *ReportService) SaveFilter(ctx context.Context, employeeID uint, f ListFilter) error {
	if err := f.validate(); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, filterKey(employeeID), string(data), 0)
}

// LoadFilter returns the saved filter, or an empty one if none was saved.
func (s *ReportService) LoadFilter(ctx context.Context, employeeID uint) (ListFilter, error) {
	var f ListFilter
	raw, ok, err := s.cache.Get(ctx, filterKey(employeeID))
	if err != nil || !ok {
		return f, err
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return ListFilter{}, fmt.Errorf("decode filter: %w", err)
	}
	return f, nil
}

func (s *ReportService) ClearFilter(ctx context.Context, employeeID uint) error {
	return s.cache.Delete(ctx, filterKey(employeeID))
}
