package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/report"
	"tesoreria/internal/treasury"
)

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	unackedOnly := r.URL.Query().Get("unacked") == "true"
	alerts, err := s.store.ListAlerts(r.Context(), unackedOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) scanAlerts(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		s.writeError(w, r, treasury.ValidationError{Field: "rules", Message: "no alert rules configured"})
		return
	}
	fired, err := s.scanner.Scan(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}

func (s *Server) ackAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.store.AckAlert(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) positionReport(w http.ResponseWriter, r *http.Request) {
	horizon := 30
	if v := r.URL.Query().Get("horizon_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			s.writeError(w, r, treasury.ValidationError{Field: "horizon_days", Message: "must be 1..365"})
			return
		}
		horizon = n
	}
	pos, err := report.Build(r.Context(), s.store, time.Now(), horizon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
