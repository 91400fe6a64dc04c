package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UploadHandler hands out pre-signed image upload URLs
type UploadHandler struct {
	uploads *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// PresignImage handles POST /uploads/images
func (h *UploadHandler) PresignImage(w http.ResponseWriter, r *http.Request) {
	var req services.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	resp, err := h.uploads.PresignImage(ctx, userID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("key", resp.Key).
		Msg("Upload URL generated")

	respondJSON(w, http.StatusOK, resp)
}
