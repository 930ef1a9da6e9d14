package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/treasury"
)

func (s *Server) listThirdParties(w http.ResponseWriter, r *http.Request) {
	kind := treasury.PartyKind(r.URL.Query().Get("kind"))
	if kind != "" && !treasury.ValidPartyKinds[kind] {
		s.writeError(w, r, treasury.ValidationError{Field: "kind", Message: "unknown kind"})
		return
	}
	parties, err := s.store.ListThirdParties(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parties)
}

func (s *Server) createThirdParty(w http.ResponseWriter, r *http.Request) {
	var p treasury.ThirdParty
	if err := decode(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateThirdParty(r.Context(), &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getThirdParty(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetThirdParty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateThirdParty(w http.ResponseWriter, r *http.Request) {
	var p treasury.ThirdParty
	if err := decode(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateThirdParty(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteThirdParty(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteThirdParty(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
