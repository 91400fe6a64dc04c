package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps request bodies; every payload here is a small JSON document
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse is one page of a list plus the unpaged total
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T, total int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: total}
}

// respondJSON writes v with the given status
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// handleError maps service errors onto status codes. Missing and forbidden both
// answer 404 with no body so callers cannot tell them apart.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var pf *services.PartialFailureError

	switch {
	case errors.As(err, &pf):
		// before ErrNotFound, which a failed step may carry as its cause
		respondError(w, "Operation partially applied", http.StatusInternalServerError)
	case errors.Is(err, services.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, services.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, "Unable to login", http.StatusBadRequest)
	case errors.Is(err, services.ErrAlreadyInRelation),
		errors.Is(err, services.ErrNotInRelation),
		errors.Is(err, services.ErrInvalidUpdate):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrConflict):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Store unavailable")
		respondError(w, "Service unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().
			Err(err).
			Str("user_id", middleware.GetUserID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads the request body into v, answering 400 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func queryBool(q url.Values, key string) bool {
	v, _ := strconv.ParseBool(q.Get(key))
	return v
}

func queryBoolPtr(q url.Values, key string) *bool {
	v, err := strconv.ParseBool(q.Get(key))
	if err != nil {
		return nil
	}
	return &v
}

func queryFloatPtr(q url.Values, key string) *float64 {
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil {
		return nil
	}
	return &v
}
