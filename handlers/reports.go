package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"qrtrack/config"
	"qrtrack/mail"
	"qrtrack/middleware"
	"qrtrack/models"
	"qrtrack/services"
)

const maxUploadBytes = 32 << 20

type ReportHandler struct {
	config  *config.Config
	reports *services.ReportService
	log     *zap.Logger
}

func NewReportHandler(cfg *config.Config, reports *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{config: cfg, reports: reports, log: log}
}

func (h *ReportHandler) reportID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
	}
	return id, ok
}

func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, status int, report *models.Report, err error) {
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, status, report)
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var header services.Header
	if !decodeJSON(w, r, &header) {
		return
	}
	report, err := h.reports.Create(r.Context(), middleware.GetEmployeeFromContext(r.Context()), header)
	h.respond(w, r, http.StatusCreated, report, err)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context(), middleware.GetEmployeeFromContext(r.Context()), listFilterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	report, err := h.reports.Get(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id)
	h.respond(w, r, http.StatusOK, report, err)
}

func (h *ReportHandler) ReplaceEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	var entries []models.ReportEntry
	if !decodeJSON(w, r, &entries) {
		return
	}
	report, err := h.reports.ReplaceEntries(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, entries)
	h.respond(w, r, http.StatusOK, report, err)
}

func (h *ReportHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	var entry models.ReportEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	report, err := h.reports.AddEntry(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, entry)
	h.respond(w, r, http.StatusOK, report, err)
}

func (h *ReportHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry index")
		return
	}
	report, err := h.reports.DeleteEntry(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, index)
	h.respond(w, r, http.StatusOK, report, err)
}

func photoFile(fh *multipart.FileHeader) services.PhotoFile {
	return services.PhotoFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UploadPhotos attaches the multipart "photos" files. Files that fail are
// listed in "failed" while the rest stay attached.
func (h *ReportHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["photos"]
	files := make([]services.PhotoFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, photoFile(fh))
	}

	report, err := h.reports.AttachPhotos(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, files)
	if report == nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	failed := []string{}
	if err != nil {
		failed = strings.Split(err.Error(), "\n")
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "failed": failed})
}

// Transition returns the handler for one review action.
func (h *ReportHandler) Transition(t models.Transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.reportID(w, r)
		if !ok {
			return
		}
		report, err := h.reports.Transition(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, t)
		h.respond(w, r, http.StatusOK, report, err)
	}
}

func (h *ReportHandler) Email(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reportID(w, r)
	if !ok {
		return
	}
	var body struct {
		To mail.Recipients `json:"to"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.reports.EmailReport(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id, body.To)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

func (h *ReportHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.reports.LoadDraft(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *ReportHandler) StashDraft(w http.ResponseWriter, r *http.Request) {
	var draft services.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}
	if err := h.reports.StashDraft(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID, draft); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.ClearDraft(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDraft persists a draft form as a report and empties the draft slot.
func (h *ReportHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var draft services.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}
	status := http.StatusOK
	if draft.ReportID == 0 {
		status = http.StatusCreated
	}
	report, err := h.reports.SaveDraft(r.Context(), middleware.GetEmployeeFromContext(r.Context()), draft)
	h.respond(w, r, status, report, err)
}

func (h *ReportHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	filter, err := h.reports.LoadFilter(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, filter)
}

func (h *ReportHandler) SaveFilter(w http.ResponseWriter, r *http.Request) {
	var filter services.ListFilter
	if !decodeJSON(w, r, &filter) {
		return
	}
	if err := h.reports.SaveFilter(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID, filter); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, filter)
}

func (h *ReportHandler) ClearFilter(w http.ResponseWriter, r *http.Request) {
	if err := h.reports.ClearFilter(r.Context(), middleware.GetEmployeeFromContext(r.Context()).ID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func exportFilename(f services.ListFilter, ext string) string {
	from, to := f.From, f.To
	if from == "" {
		from = "all"
	}
	if to == "" {
		to = "all"
	}
	return fmt.Sprintf("reports_%s_%s.%s", from, to, ext)
}

func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(filter, "csv")))

	if err := h.reports.ExportCSV(r.Context(), middleware.GetEmployeeFromContext(r.Context()), filter, w); err != nil {
		w.Header().Del("Content-Disposition")
		writeServiceError(w, r, h.log, err)
	}
}

func (h *ReportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename(filter, "xlsx")))

	if err := h.reports.ExportXLSX(r.Context(), middleware.GetEmployeeFromContext(r.Context()), filter, w); err != nil {
		w.Header().Del("Content-Disposition")
		writeServiceError(w, r, h.log, err)
	}
}
