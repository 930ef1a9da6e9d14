package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tesoreria/internal/payroll"
	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes: validation failures
// are 400, missing records 404, state conflicts 409. Anything else is a
// 500 with the detail kept out of the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr treasury.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, store.ErrConflict), errors.Is(err, payroll.ErrNotReady):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return treasury.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
