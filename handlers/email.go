package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"qrtrack/mail"
)

type EmailHandler struct {
	mailer mail.Sender
	log    *zap.Logger
}

func NewEmailHandler(mailer mail.Sender, log *zap.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, log: log}
}

type emailResponse struct {
	Success bool         `json:"success"`
	Data    *mail.Result `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Send relays {to, subject, html} to the mail provider.
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var msg mail.Message
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, emailResponse{Error: "invalid request body"})
		return
	}
	if err := msg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, emailResponse{Error: err.Error()})
		return
	}

	result, err := h.mailer.Send(r.Context(), msg)
	if err != nil {
		h.log.Error("send email", zap.Strings("to", msg.To), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, emailResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Success: true, Data: result})
}
