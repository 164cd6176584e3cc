package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Events.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(list), "data": list})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"data": e})
}

// handleRegisterForEvent is public. The student's identity comes from the
// form, not from a session. An empty body still reaches the service so an
// unknown or closed event is reported first.
func (s *Server) handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	var req registerForEventRequest
	if err := readJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}

	reg, err := s.svc.Registrations.Register(r.Context(), chi.URLParam(r, "id"), req.identity(), req.TransactionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"message": "Successfully registered for the event",
		"data":    reg,
	})
}

func (s *Server) handleMyEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Registrations.MyEvents(r.Context(), identityFrom(r.Context()).USN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(list), "events": list})
}

func (s *Server) handleCheckRegistration(w http.ResponseWriter, r *http.Request) {
	ok, err := s.svc.Registrations.IsRegistered(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()).USN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"isRegistered": ok})
}
