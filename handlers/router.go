package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"qrtrack/config"
	"qrtrack/logging"
	"qrtrack/mail"
	"qrtrack/middleware"
	"qrtrack/models"
	"qrtrack/services"
)

type Services struct {
	Auth        *services.AuthService
	Employees   *services.EmployeeService
	Scans       *services.ScanService
	Reports     *services.ReportService
	Locations   *services.LocationService
	Assignments *services.AssignmentService
	Mailer      mail.Sender
}

// NewRouter wires every route. uploadsDir is served under /uploads/ when set.
func NewRouter(cfg *config.Config, svc Services, log *zap.Logger, uploadsDir string) http.Handler {
	authHandler := NewAuthHandler(cfg, svc.Auth, svc.Assignments, log)
	scanHandler := NewScanHandler(cfg, svc.Scans, log)
	reportHandler := NewReportHandler(cfg, svc.Reports, log)
	locationHandler := NewLocationHandler(svc.Locations, log)
	assignmentHandler := NewAssignmentHandler(svc.Assignments, log)
	employeeHandler := NewEmployeeHandler(svc.Employees, log)
	emailHandler := NewEmailHandler(svc.Mailer, log)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(logging.RequestLogger(log))
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if uploadsDir != "" {
		router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}

	// Public routes
	router.Post("/api/auth/login", authHandler.Login)
	router.Post("/api/auth/link", authHandler.RequestLink)
	router.Get("/api/auth/link", authHandler.ConsumeLink)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		// Reachable while a password change is pending
		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/me", authHandler.Me)
		r.Post("/api/me/password", authHandler.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePasswordChange)

			r.Get("/api/me/locations", authHandler.MyLocations)
			r.Post("/send-email", emailHandler.Send)

			r.Post("/api/scans", scanHandler.Record)
			r.Get("/api/scans/recent", scanHandler.Recent)

			r.Route("/api/reports", func(r chi.Router) {
				r.Post("/", reportHandler.Create)
				r.Get("/", reportHandler.List)

				r.Get("/draft", reportHandler.GetDraft)
				r.Put("/draft", reportHandler.StashDraft)
				r.Delete("/draft", reportHandler.ClearDraft)
				r.Post("/draft/save", reportHandler.SaveDraft)

				r.Get("/filter", reportHandler.GetFilter)
				r.Put("/filter", reportHandler.SaveFilter)
				r.Delete("/filter", reportHandler.ClearFilter)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor))
					r.Get("/export.csv", reportHandler.ExportCSV)
					r.Get("/export.xlsx", reportHandler.ExportXLSX)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", reportHandler.Get)
					r.Put("/entries", reportHandler.ReplaceEntries)
					r.Post("/entries", reportHandler.AddEntry)
					r.Delete("/entries/{index}", reportHandler.DeleteEntry)
					r.Post("/photos", reportHandler.UploadPhotos)
					r.Post("/email", reportHandler.Email)

					r.Post("/submit", reportHandler.Transition(models.TransitionSubmit))
					r.Post("/approve", reportHandler.Transition(models.TransitionApprove))
					r.Post("/return", reportHandler.Transition(models.TransitionReturn))
					r.Post("/delete", reportHandler.Transition(models.TransitionDelete))
					r.Post("/restore", reportHandler.Transition(models.TransitionRestore))
				})
			})

			// Admin and supervisor routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSupervisor))
				r.Get("/api/scans/summary", scanHandler.Summary)
			})

			// Admin only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Get("/api/locations", locationHandler.List)
				r.Post("/api/locations", locationHandler.Create)
				r.Get("/api/locations/{id}", locationHandler.Get)
				r.Put("/api/locations/{id}", locationHandler.Update)
				r.Get("/api/locations/{id}/qrcodes", locationHandler.ListQRCodes)
				r.Post("/api/locations/{id}/qrcodes", locationHandler.AddQRCode)

				r.Get("/api/qrcodes/print", locationHandler.Print)
				r.Put("/api/qrcodes/{id}", locationHandler.UpdateQRCode)
				r.Delete("/api/qrcodes/{id}", locationHandler.DeleteQRCode)

				r.Get("/api/assignments/employees/{id}", assignmentHandler.ListForEmployee())
				r.Put("/api/assignments/employees/{id}", assignmentHandler.ReplaceForEmployee())
				r.Get("/api/assignments/locations/{id}", assignmentHandler.ListForLocation())
				r.Put("/api/assignments/locations/{id}", assignmentHandler.ReplaceForLocation())

				r.Get("/api/employees", employeeHandler.List)
				r.Post("/api/employees", employeeHandler.Create)
				r.Get("/api/employees/{id}", employeeHandler.Get)
				r.Put("/api/employees/{id}", employeeHandler.Update)
				r.Delete("/api/employees/{id}", employeeHandler.Delete)

				r.Get("/api/invites", authHandler.ListInvites)
				r.Post("/api/invites", authHandler.CreateInvite)
				r.Delete("/api/invites/{id}", authHandler.DeleteInvite)
			})
		})
	})

	return router
}
