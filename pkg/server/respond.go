package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/mindlayout/pkg/errors"
	"github.com/matzehuels/mindlayout/pkg/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps err to a status code. Errors without a known code get
// fallback.
func writeErr(w http.ResponseWriter, err error, fallback int) {
	writeJSON(w, statusFor(err, fallback), errorResponse{Error: err.Error(), Code: string(errs.GetCode(err))})
}

func statusFor(err error, fallback int) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeNodeNotFound, errs.ErrCodeEdgeNotFound, errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeInvalidOperation:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidConfig, errs.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errs.ErrCodeStorage, errs.ErrCodeInternal:
		return http.StatusInternalServerError
	}
	return fallback
}
