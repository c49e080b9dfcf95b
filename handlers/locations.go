package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"qrtrack/services"
)

type LocationHandler struct {
	locations *services.LocationService
	log       *zap.Logger
}

func NewLocationHandler(locations *services.LocationService, log *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, log: log}
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.locations.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.LocationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	location, err := h.locations.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	location, err := h.locations.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	var in services.LocationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	location, err := h.locations.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	codes, err := h.locations.ListQRCodes(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

func (h *LocationHandler) AddQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	var in services.QRCodeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	code, err := h.locations.AddQRCode(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

func (h *LocationHandler) UpdateQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}
	var in services.QRCodeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	code, err := h.locations.UpdateQRCode(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (h *LocationHandler) DeleteQRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}
	if err := h.locations.DeleteQRCode(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Print renders a print sheet for ?ids=1,2,3.
func (h *LocationHandler) Print(w http.ResponseWriter, r *http.Request) {
	page, err := h.locations.PrintSheet(r.Context(), parseIDList(r.URL.Query().Get("ids")))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
