package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler returns the API's route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, tagRequest, middleware.RealIP, s.logRequests, middleware.Recoverer, s.cors)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	r.Get("/", s.handleInfo)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/forgotpassword", s.handleForgotPassword)
			r.Put("/resetpassword/{token}", s.handleResetPassword)
			r.With(s.authenticate).Get("/me", s.handleMe)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.With(s.authenticate).Get("/my/registrations", s.handleMyEvents)
			r.Get("/{id}", s.handleGetEvent)
			r.Post("/{id}/register", s.handleRegisterForEvent)
			r.With(s.authenticate).Get("/{id}/check-registration", s.handleCheckRegistration)
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/", s.handleMyEvents)
			r.Get("/check/{id}", s.handleCheckRegistration)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
			r.Put("/password", s.handleChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authenticate, s.requireAdmin)
			r.Post("/events", s.handleCreateEvent)
			r.Put("/events/{id}", s.handleUpdateEvent)
			r.Delete("/events/{id}", s.handleDeleteEvent)
			r.Get("/events/{id}/registrations", s.handleEventRegistrations)
			r.Get("/events/{id}/registrations/csv", s.handleExportCSV)
			r.Get("/dashboard/stats", s.handleDashboardStats)
		})
	})

	return r
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"message": "EventHub API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"auth":   "/api/auth",
			"events": "/api/events",
			"admin":  "/api/admin",
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Kind: kindNotFound, Message: "Route not found"})
}
