package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"qrtrack/config"
	"qrtrack/middleware"
	"qrtrack/services"
)

type ScanHandler struct {
	config *config.Config
	scans  *services.ScanService
	log    *zap.Logger
}

func NewScanHandler(cfg *config.Config, scans *services.ScanService, log *zap.Logger) *ScanHandler {
	return &ScanHandler{config: cfg, scans: scans, log: log}
}

// Record stores one decoded QR payload and answers with the latest scans so
// the scanner view can refresh in one round trip.
func (h *ScanHandler) Record(w http.ResponseWriter, r *http.Request) {
	employee := middleware.GetEmployeeFromContext(r.Context())

	var body struct {
		Payload string `json:"payload"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	scan, err := h.scans.Record(r.Context(), employee.ID, body.Payload)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	recent, err := h.scans.Recent(r.Context(), employee.ID, h.config.RecentScanLimit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"scan": scan, "recent": recent})
}

func (h *ScanHandler) Recent(w http.ResponseWriter, r *http.Request) {
	employee := middleware.GetEmployeeFromContext(r.Context())
	scans, err := h.scans.Recent(r.Context(), employee.ID, h.config.RecentScanLimit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

func (h *ScanHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.scans.Summary(r.Context(), services.ScanFilter{
		EmployeeID: queryID(r, "employee_id"),
		LocationID: queryID(r, "location_id"),
		Date:       q.Get("date"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
