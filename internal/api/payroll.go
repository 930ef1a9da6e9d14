package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/treasury"
)

func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.ListBatches(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var b treasury.PayrollBatch
	if err := decode(r, &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateBatch(r.Context(), &b); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) advanceBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.wizard.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) backBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.wizard.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) cancelBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.wizard.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) submitBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.wizard.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listBatchLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.store.ListLines(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) setBatchLine(w http.ResponseWriter, r *http.Request) {
	var l treasury.PayrollLine
	if err := decode(r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	l.BatchID = chi.URLParam(r, "id")
	if err := s.wizard.SetLine(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) removeBatchLine(w http.ResponseWriter, r *http.Request) {
	err := s.wizard.RemoveLine(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "employeeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
