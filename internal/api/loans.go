package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/treasury"
)

func (s *Server) listLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.store.ListLoans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	var l treasury.Loan
	if err := decode(r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateLoan(r.Context(), &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) getLoan(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) updateLoan(w http.ResponseWriter, r *http.Request) {
	var l treasury.Loan
	if err := decode(r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	l.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateLoan(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) deleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLoan(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
