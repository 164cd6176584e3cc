package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Events.Create(r.Context(), identityFrom(r.Context()), req.toFields())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"message": "Event created successfully", "event": e})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	e, err := s.svc.Events.Update(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), req.toFields())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Event updated successfully", "event": e})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Events.Delete(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Event deleted successfully"})
}

func (s *Server) handleEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.svc.Events.Registrations(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(regs), "data": regs})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.svc.Events.ExportCSV(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Events.DashboardStats(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"stats": map[string]int64{
			"totalEvents":        stats.TotalEvents,
			"upcomingEvents":     stats.UpcomingEvents,
			"totalRegistrations": stats.TotalRegistrations,
		},
		"recentEvents": stats.RecentEvents,
	})
}
