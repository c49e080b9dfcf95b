package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qrtrack/models"
)

type LocationService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLocationService(db *gorm.DB, log *zap.Logger) *LocationService {
	return &LocationService{db: db, log: log}
}

type LocationInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

func (in *LocationInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return invalid("location name is required")
	}
	switch in.Status {
	case "":
		in.Status = models.LocationActive
	case models.LocationActive, models.LocationInactive:
	default:
		return invalid("unknown location status %q", in.Status)
	}
	return nil
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (*models.Location, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	location := models.Location{Name: in.Name, Address: in.Address, Status: in.Status}
	if err := s.db.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	s.log.Info("location created", zap.Uint("location_id", location.ID), zap.String("name", location.Name))
	return &location, nil
}

func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	err := s.db.WithContext(ctx).Order("name").Find(&locations).Error
	return locations, err
}

// Get returns a location with its QR codes ordered by label.
func (s *LocationService) Get(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	err := s.db.WithContext(ctx).
		Preload("QRCodes", func(db *gorm.DB) *gorm.DB { return db.Order("label") }).
		First(&location, id).Error
	if err != nil {
		return nil, notFound(err, "location")
	}
	return &location, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, in LocationInput) (*models.Location, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).Updates(map[string]any{
		"name":    in.Name,
		"address": in.Address,
		"status":  in.Status,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("update location: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("location %w", ErrNotFound)
	}
	return s.Get(ctx, id)
}

type QRCodeInput struct {
	Label     string `json:"label"`
	CodeValue string `json:"code_value"`
}

func (in *QRCodeInput) normalize() error {
	in.Label = strings.TrimSpace(in.Label)
	in.CodeValue = strings.TrimSpace(in.CodeValue)
	if in.Label == "" || in.CodeValue == "" {
		return invalid("label and code value are required")
	}
	return nil
}

// checkQRUnique rejects a value used by any other code, or a label used by
// another code of the same location. excludeID is the code being edited.
func checkQRUnique(tx *gorm.DB, locationID uint, in QRCodeInput, excludeID uint) error {
	var count int64
	if err := tx.Model(&models.QRCode{}).
		Where("code_value = ? AND id <> ?", in.CodeValue, excludeID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCodeValue
	}
	if err := tx.Model(&models.QRCode{}).
		Where("location_id = ? AND label = ? AND id <> ?", locationID, in.Label, excludeID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateLabel
	}
	return nil
}

// uniqueViolation maps a unique index failure that slipped past the checks
// (a concurrent insert) onto the matching duplicate error.
func uniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
		if strings.Contains(err.Error(), "label") {
			return ErrDuplicateLabel
		}
		return ErrDuplicateCodeValue
	}
	return err
}

func (s *LocationService) AddQRCode(ctx context.Context, locationID uint, in QRCodeInput) (*models.QRCode, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	code := models.QRCode{LocationID: locationID, Label: in.Label, CodeValue: in.CodeValue}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Location{}, locationID).Error; err != nil {
			return notFound(err, "location")
		}
		if err := checkQRUnique(tx, locationID, in, 0); err != nil {
			return err
		}
		return uniqueViolation(tx.Create(&code).Error)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qr code added", zap.Uint("qr_code_id", code.ID), zap.Uint("location_id", locationID))
	return &code, nil
}

func (s *LocationService) UpdateQRCode(ctx context.Context, id uint, in QRCodeInput) (*models.QRCode, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var code models.QRCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&code, id).Error; err != nil {
			return notFound(err, "qr code")
		}
		if err := checkQRUnique(tx, code.LocationID, in, id); err != nil {
			return err
		}
		code.Label = in.Label
		code.CodeValue = in.CodeValue
		return uniqueViolation(tx.Model(&code).Updates(map[string]any{
			"label":      in.Label,
			"code_value": in.CodeValue,
		}).Error)
	})
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *LocationService) DeleteQRCode(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.QRCode{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("qr code %w", ErrNotFound)
	}
	return nil
}

func (s *LocationService) ListQRCodes(ctx context.Context, locationID uint) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := s.db.WithContext(ctx).Where("location_id = ?", locationID).Order("label").Find(&codes).Error
	return codes, err
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>QR codes</title>
<style>
body { font-family: Arial, sans-serif; }
.code { display: inline-block; width: 220px; margin: 12px; text-align: center; page-break-inside: avoid; }
.code img { width: 200px; height: 200px; }
</style>
</head>
<body>
{{range .}}<div class="code">
<img src="{{.Image}}" alt="{{.Label}}">
<div><strong>{{.Location}}</strong></div>
<div>{{.Label}}</div>
</div>
{{end}}<script>
(function () {
  var images = document.images, pending = images.length, printed = false;
  function print() { if (!printed) { printed = true; window.print(); } }
  if (pending === 0) { print(); return; }
  for (var i = 0; i < images.length; i++) {
    if (images[i].complete) { if (--pending === 0) print(); continue; }
    images[i].onload = images[i].onerror = function () { if (--pending === 0) print(); };
  }
  setTimeout(print, 3000);
})();
</script>
</body>
</html>
`))

type printItem struct {
	Image    template.URL
	Label    string
	Location string
}

// PrintSheet renders the selected codes as a printable HTML page that opens
// the print dialog once every image has loaded.
func (s *LocationService) PrintSheet(ctx context.Context, ids []uint) ([]byte, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, invalid("select at least one QR code")
	}

	var codes []models.QRCode
	if err := s.db.WithContext(ctx).Preload("Location").Where("id IN ?", ids).Order("location_id, label").Find(&codes).Error; err != nil {
		return nil, err
	}
	if len(codes) != len(ids) {
		return nil, fmt.Errorf("qr code %w", ErrNotFound)
	}

	items := make([]printItem, 0, len(codes))
	for _, c := range codes {
		png, err := qrcode.Encode(c.CodeValue, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c.Label, err)
		}
		item := printItem{
			Image: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
			Label: c.Label,
		}
		if c.Location != nil {
			item.Location = c.Location.Name
		}
		items = append(items, item)
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
