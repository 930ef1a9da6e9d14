package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := treasury.ParseDate(v)
	if err != nil {
		return time.Time{}, treasury.ValidationError{Field: name, Message: "must be YYYY-MM-DD"}
	}
	return t, nil
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.OrderFilter{
		AccountID:    q.Get("account_id"),
		ThirdPartyID: q.Get("third_party_id"),
		Category:     q.Get("category"),
		Status:       treasury.OrderStatus(q.Get("status")),
	}
	if f.Status != "" && !treasury.ValidOrderStatuses[f.Status] {
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
	orders, err := s.store.ListOrders(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var o treasury.PaymentOrder
	if err := decode(r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.CreateOrder(r.Context(), &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	var o treasury.PaymentOrder
	if err := decode(r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	o.ID = chi.URLParam(r, "id")
	if err := s.store.UpdateOrder(r.Context(), o); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) confirmOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.ConfirmOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) rejectOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.store.RejectOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
