package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/treasury"
)

func (s *Server) listCreditLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.store.ListCreditLines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) createCreditLine(w http.ResponseWriter, r *http.Request) {
	var cl treasury.CreditLine
	if err := decode(r, &cl); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateCreditLine(r.Context(), &cl); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cl)
}

func (s *Server) getCreditLine(w http.ResponseWriter, r *http.Request) {
	cl, err := s.store.GetCreditLine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func (s *Server) updateCreditLine(w http.ResponseWriter, r *http.Request) {
	var cl treasury.CreditLine
	if err := decode(r, &cl); err != nil {
		s.writeError(w, r, err)
		return
	}
	cl.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateCreditLine(r.Context(), cl); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

func (s *Server) deleteCreditLine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCreditLine(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCreditCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListCreditCards(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) createCreditCard(w http.ResponseWriter, r *http.Request) {
	var cc treasury.CreditCard
	if err := decode(r, &cc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateCreditCard(r.Context(), &cc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cc)
}

func (s *Server) getCreditCard(w http.ResponseWriter, r *http.Request) {
	cc, err := s.store.GetCreditCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

func (s *Server) updateCreditCard(w http.ResponseWriter, r *http.Request) {
	var cc treasury.CreditCard
	if err := decode(r, &cc); err != nil {
		s.writeError(w, r, err)
		return
	}
	cc.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateCreditCard(r.Context(), cc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

func (s *Server) deleteCreditCard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCreditCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
