package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"qrtrack/services"
)

type AssignmentHandler struct {
	assignments *services.AssignmentService
	log         *zap.Logger
}

func NewAssignmentHandler(assignments *services.AssignmentService, log *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, log: log}
}

type assignmentBody struct {
	IDs []uint `json:"ids"`
}

func assignmentKey(w http.ResponseWriter, r *http.Request, employeeSide bool) (services.AssignmentKey, bool) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return services.AssignmentKey{}, false
	}
	if employeeSide {
		return services.AssignmentKey{EmployeeID: id}, true
	}
	return services.AssignmentKey{LocationID: id}, true
}

func (h *AssignmentHandler) list(employeeSide bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := assignmentKey(w, r, employeeSide)
		if !ok {
			return
		}
		ids, err := h.assignments.ListFor(r.Context(), key)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, assignmentBody{IDs: ids})
	}
}

// replace swaps the full set for one side of the relation.
func (h *AssignmentHandler) replace(employeeSide bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := assignmentKey(w, r, employeeSide)
		if !ok {
			return
		}
		var body assignmentBody
		if !decodeJSON(w, r, &body) {
			return
		}
		ids, err := h.assignments.Replace(r.Context(), key, body.IDs)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, assignmentBody{IDs: ids})
	}
}

func (h *AssignmentHandler) ListForEmployee() http.HandlerFunc    { return h.list(true) }
func (h *AssignmentHandler) ReplaceForEmployee() http.HandlerFunc { return h.replace(true) }
func (h *AssignmentHandler) ListForLocation() http.HandlerFunc    { return h.list(false) }
func (h *AssignmentHandler) ReplaceForLocation() http.HandlerFunc { return h.replace(false) }
