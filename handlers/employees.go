package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"qrtrack/middleware"
	"qrtrack/services"
)

type EmployeeHandler struct {
	employees *services.EmployeeService
	log       *zap.Logger
}

func NewEmployeeHandler(employees *services.EmployeeService, log *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, log: log}
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employees, err := h.employees.List(r.Context(), services.EmployeeFilter{
		Search: q.Get("search"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.EmployeeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	employee, err := h.employees.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	employee, err := h.employees.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	var in services.EmployeeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	employee, err := h.employees.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if err := h.employees.Delete(r.Context(), middleware.GetEmployeeFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
