package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

// createRecurringRequest pairs the head record with its first version.
type createRecurringRequest struct {
	treasury.RecurringTransaction
	Version treasury.RecurringVersion `json:"first_version"`
}

func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	recs, err := s.store.ListRecurring(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec := req.RecurringTransaction
	if err := s.store.CreateRecurring(r.Context(), &rec, req.Version); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getRecurring(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRecurring(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) updateRecurring(w http.ResponseWriter, r *http.Request) {
	var rec treasury.RecurringTransaction
	if err := decode(r, &rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateRecurring(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.ListVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(versions) == 0 {
		s.writeError(w, r, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *Server) addVersion(w http.ResponseWriter, r *http.Request) {
	var v treasury.RecurringVersion
	if err := decode(r, &v); err != nil {
		s.writeError(w, r, err)
		return
	}
	v.RecurringID = chi.URLParam(r, "id")
	v, err := s.store.AddRecurringVersion(r.Context(), v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type generateRequest struct {
	Horizon string `json:"horizon"` // YYYY-MM-DD, inclusive
}

func (s *Server) generateInstances(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	horizon, err := treasury.ParseDate(req.Horizon)
	if err != nil {
		s.writeError(w, r, treasury.ValidationError{Field: "horizon", Message: "must be YYYY-MM-DD"})
		return
	}
	created, err := s.generator.Generate(r.Context(), horizon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (s *Server) listInstances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.InstanceFilter{
		RecurringID: q.Get("recurring_id"),
		Status:      treasury.InstanceStatus(q.Get("status")),
	}
	if f.Status != "" && !treasury.ValidInstanceStatuses[f.Status] {
		s.writeError(w, r, treasury.ValidationError{Field: "status", Message: "unknown status"})
		return
	}
	var err error
	if f.From, err = parseDateParam(r, "from"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.To, err = parseDateParam(r, "to"); err != nil {
		s.writeError(w, r, err)
		return
	}
	insts, err := s.store.ListInstances(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insts)
}

func (s *Server) confirmInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.ConfirmInstance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) skipInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.SkipInstance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
