package router

import (
	"net/http"

	adminHandler "carenest/internal/admin"
	authHandler "carenest/internal/auth"
	authModel "carenest/internal/auth/model"
	galleryHandler "carenest/internal/gallery"
	patientHandler "carenest/internal/patient"
	"carenest/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth    *authHandler.AuthHandler
	Patient *patientHandler.PatientHandler
	Gallery *galleryHandler.GalleryHandler
	Admin   *adminHandler.AdminHandler
}

func Setup(h Handlers, tokens middleware.TokenParser, corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(corsOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/login", h.Auth.LoginPage)
	r.Post("/login", h.Auth.Login)
	r.Get("/logout", h.Auth.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens))

		r.Get("/", h.Auth.Home)
		r.Get("/gallery", h.Gallery.Index)
		r.Get("/gallery/{category}", h.Gallery.Category)
		// Patients may watch only themselves; checked in the handler.
		r.Get("/ws/patients/{username}", h.Patient.LiveFeed)

		r.Route("/patient", func(r chi.Router) {
			r.Use(middleware.RequireRole(authModel.RolePatient))
			r.Get("/", h.Patient.Dashboard)
			r.Post("/action", h.Patient.Action)
			r.Post("/upload", h.Patient.Upload)
			r.Get("/files/{name}", h.Patient.File)
			r.Get("/{section}", h.Patient.Section)
		})

		r.Route("/caretaker", func(r chi.Router) {
			r.Use(middleware.RequireRole(authModel.RoleCaretaker, authModel.RoleAdmin))
			r.Get("/", h.Patient.CaretakerIndex)
			r.Get("/patients/{username}", h.Patient.CaretakerDashboard)
			r.With(middleware.RequireRole(authModel.RoleCaretaker)).
				Post("/patients/{username}/action", h.Patient.CaretakerAction)
		})

		r.With(middleware.RequireRole(authModel.RoleAdmin)).Get("/admin", h.Admin.Index)
	})

	return r
}
