package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/membercast/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps application errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case appErrors.IsValidation(err), errors.Is(err, appErrors.ErrInvalidDuplicatePolicy):
		return http.StatusBadRequest
	case appErrors.IsNotFound(err), errors.Is(err, appErrors.ErrImportSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, appErrors.ErrPhoneTaken), errors.Is(err, appErrors.ErrCampaignAlreadySent):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError replies with the error text, hiding internal errors.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	http.Error(w, msg, status)
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
