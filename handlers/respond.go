package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"qrtrack/mail"
	"qrtrack/models"
	"qrtrack/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidInvite),
		errors.Is(err, services.ErrInvalidLink):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrScanLocked), errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrDuplicateLabel),
		errors.Is(err, services.ErrDuplicateCodeValue), errors.Is(err, services.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnknownCode), errors.Is(err, services.ErrIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mail.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError maps a service error onto a status code. Unexpected
// errors are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func urlID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryID(r *http.Request, name string) uint {
	id, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// parseIDList reads "1,2,3" into ids, skipping anything that is not a number.
func parseIDList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

func listFilterFromQuery(r *http.Request) services.ListFilter {
	q := r.URL.Query()
	return services.ListFilter{
		Tab:        q.Get("tab"),
		Status:     models.ReportStatus(q.Get("status")),
		From:       q.Get("from"),
		To:         q.Get("to"),
		EmployeeID: queryID(r, "employee_id"),
		LocationID: queryID(r, "location_id"),
	}
}
