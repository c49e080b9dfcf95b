package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"qrtrack/config"
	"qrtrack/middleware"
	"qrtrack/models"
	"qrtrack/services"
)

type AuthHandler struct {
	config      *config.Config
	auth        *services.AuthService
	assignments *services.AssignmentService
	log         *zap.Logger
}

func NewAuthHandler(cfg *config.Config, auth *services.AuthService, assignments *services.AssignmentService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		config:      cfg,
		auth:        auth,
		assignments: assignments,
		log:         log,
	}
}

type sessionResponse struct {
	Token    string           `json:"token"`
	Employee *models.Employee `json:"employee"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, employee *models.Employee) (string, bool) {
	token, err := middleware.GenerateToken(employee, h.config.JWTExpiration)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return "", false
	}
	middleware.SetTokenCookie(w, token, h.config.JWTExpiration)
	return token, true
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	employee, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	token, ok := h.startSession(w, r, employee)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Employee: employee})
}

// RequestLink mails a one-time sign-in link to an invited address.
func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.auth.RequestLoginLink(r.Context(), body.Email, body.Code); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// ConsumeLink is the target of the mailed link: it signs the browser in and
// sends it to the app.
func (h *AuthHandler) ConsumeLink(w http.ResponseWriter, r *http.Request) {
	employee, err := h.auth.ConsumeLoginLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if _, ok := h.startSession(w, r, employee); !ok {
		return
	}
	h.log.Info("signed in with link", zap.Uint("employee_id", employee.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetEmployeeFromContext(r.Context()))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	employee := middleware.GetEmployeeFromContext(r.Context())

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.NewPassword != body.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), employee, body.CurrentPassword, body.NewPassword); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	// Regenerate token with updated employee info
	token, ok := h.startSession(w, r, employee)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Employee: employee})
}

// MyLocations lists the locations the signed-in employee can report on.
func (h *AuthHandler) MyLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.assignments.LocationsFor(r.Context(), middleware.GetEmployeeFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *AuthHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.auth.ListInvites(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var in services.InviteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	invite, err := h.auth.CreateInvite(r.Context(), middleware.GetEmployeeFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (h *AuthHandler) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid invite id")
		return
	}
	if err := h.auth.DeleteInvite(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
