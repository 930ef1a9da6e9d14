package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/treasury"
)

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	year := 0
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, treasury.ValidationError{Field: "year", Message: "must be a number"})
			return
		}
		year = n
	}
	budgets, err := s.store.ListBudgets(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	var b treasury.Budget
	if err := decode(r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateBudget(r.Context(), &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBudget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBudget(w http.ResponseWriter, r *http.Request) {
	var b treasury.Budget
	if err := decode(r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	b.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
