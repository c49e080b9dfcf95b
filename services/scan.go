package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"qrtrack/cache"
	"qrtrack/models"
)

type ScanService struct {
	db     *gorm.DB
	locks  cache.Store
	window time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewScanService(db *gorm.DB, locks cache.Store, window time.Duration, log *zap.Logger) *ScanService {
	return &ScanService{db: db, locks: locks, window: window, log: log, now: time.Now}
}

func scanLockKey(employeeID uint, payload string) string {
	return fmt.Sprintf("scanlock:%d:%s", employeeID, payload)
}

// Record stores a decoded QR payload for an employee. A payload is accepted
// at most once per employee within the lock window; failed attempts release
// the lock so the code can be scanned again right away.
func (s *ScanService) Record(ctx context.Context, employeeID uint, payload string) (*models.Scan, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, invalid("payload is required")
	}

	key := scanLockKey(employeeID, payload)
	acquired, err := s.locks.SetNX(ctx, key, "1", s.window)
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !acquired {
		return nil, ErrScanLocked
	}

	scan, err := s.insert(ctx, employeeID, payload)
	if err != nil {
		if derr := s.locks.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Warn("release scan lock", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}

	s.log.Info("scan recorded",
		zap.Uint("employee_id", employeeID),
		zap.Uint("qr_code_id", scan.QRCodeID),
		zap.Uint("location_id", scan.LocationID),
	)
	return scan, nil
}

func (s *ScanService) insert(ctx context.Context, employeeID uint, payload string) (*models.Scan, error) {
	db := s.db.WithContext(ctx)

	var code models.QRCode
	if err := db.Preload("Location").Where("code_value = ?", payload).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownCode
		}
		return nil, fmt.Errorf("look up qr code: %w", err)
	}

	scan := models.Scan{
		EmployeeID: employeeID,
		QRCodeID:   code.ID,
		LocationID: code.LocationID,
		Payload:    payload,
		Timestamp:  s.now().UTC(),
	}
	if err := db.Create(&scan).Error; err != nil {
		return nil, fmt.Errorf("save scan: %w", err)
	}

	scan.Location = code.Location
	code.Location = nil
	scan.QRCode = &code
	return &scan, nil
}

// Recent returns an employee's latest scans, newest first.
func (s *ScanService) Recent(ctx context.Context, employeeID uint, limit int) ([]models.Scan, error) {
	if limit <= 0 {
		limit = 10
	}
	var scans []models.Scan
	err := s.db.WithContext(ctx).
		Preload("Location").
		Preload("QRCode").
		Where("employee_id = ?", employeeID).
		Order("scanned_at desc, id desc").
		Limit(limit).
		Find(&scans).Error
	return scans, err
}

type ScanFilter struct {
	EmployeeID uint
	LocationID uint
	// Date restricts scans to one day, From and To bound the time of day.
	Date string
	From string
	To   string
}

// LocationActivity aggregates the scans recorded at one location.
type LocationActivity struct {
	LocationID   uint          `json:"location_id"`
	LocationName string        `json:"location"`
	TotalScans   int           `json:"total_scans"`
	FirstScan    time.Time     `json:"first_scan"`
	LastScan     time.Time     `json:"last_scan"`
	Scans        []models.Scan `json:"scans"`
}

// Summary groups matching scans per location, busiest location first.
func (s *ScanService) Summary(ctx context.Context, f ScanFilter) ([]LocationActivity, error) {
	q := s.db.WithContext(ctx).Preload("Location").Preload("Employee")
	if f.EmployeeID != 0 {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}

	if f.Date != "" {
		day, err := parseDate(f.Date)
		if err != nil {
			return nil, err
		}
		from, to := f.From, f.To
		if from == "" {
			from = "06:00"
		}
		if to == "" {
			to = "23:59"
		}
		if err := checkClock("from", from); err != nil {
			return nil, err
		}
		if err := checkClock("to", to); err != nil {
			return nil, err
		}
		start, _ := time.Parse(dateLayout+" "+clockLayout, day.Format(dateLayout)+" "+from)
		end, _ := time.Parse(dateLayout+" "+clockLayout, day.Format(dateLayout)+" "+to)
		// the end minute is inclusive
		q = q.Where("scanned_at >= ? AND scanned_at < ?", start, end.Add(time.Minute))
	}

	var scans []models.Scan
	if err := q.Order("scanned_at asc, id asc").Find(&scans).Error; err != nil {
		return nil, err
	}

	byLocation := make(map[uint]*LocationActivity)
	var order []uint
	for _, scan := range scans {
		act, ok := byLocation[scan.LocationID]
		if !ok {
			act = &LocationActivity{LocationID: scan.LocationID, FirstScan: scan.Timestamp}
			if scan.Location != nil {
				act.LocationName = scan.Location.Name
			}
			byLocation[scan.LocationID] = act
			order = append(order, scan.LocationID)
		}
		act.TotalScans++
		act.LastScan = scan.Timestamp
		act.Scans = append(act.Scans, scan)
	}

	out := make([]LocationActivity, 0, len(order))
	for _, id := range order {
		out = append(out, *byLocation[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScans > out[j].TotalScans
	})
	return out, nil
}
