package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"securevault/internal/errs"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondClassified maps a core error to its external shape. Internal detail
// never crosses this boundary; unclassified errors collapse into a generic
// message.
func respondClassified(w http.ResponseWriter, err error) {
	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": "validation failed",
			"field_errors": map[string]string{
				validation.Field: validation.Reason,
			},
		})
		return
	}
	var lockout *errs.LockoutError
	if errors.As(err, &lockout) {
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":       "account locked",
			"retry_after": lockout.Until,
		})
		return
	}
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, errs.ErrSessionInvalid):
		respondError(w, http.StatusUnauthorized, "session invalid")
	case errors.Is(err, errs.ErrDuplicateIdentity):
		respondError(w, http.StatusConflict, "username or email already exists")
	case errors.Is(err, errs.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, "insufficient funds")
	default:
		var integrity *errs.IntegrityError
		if errors.As(err, &integrity) {
			respondError(w, http.StatusInternalServerError, "stored data failed verification")
			return
		}
		var resource *errs.ResourceError
		if errors.As(err, &resource) {
			respondError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry later")
			return
		}
		respondError(w, http.StatusInternalServerError, "request failed")
	}
}
