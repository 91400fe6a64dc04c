package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// CommentHandler handles ratings, questions and answers
type CommentHandler struct {
	comments *services.CommentService
	cascade  *services.CascadeService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, cascade *services.CascadeService) *CommentHandler {
	return &CommentHandler{comments: comments, cascade: cascade}
}

// Rate handles POST /comments/ratings
func (h *CommentHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req services.RatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.comments.Rate(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// Ask handles POST /comments/questions
func (h *CommentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req services.QuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.comments.Ask(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// Answer handles POST /comments/questions/{question_id}/answers
func (h *CommentHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req services.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.comments.Answer(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "question_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// DeleteQuestion handles DELETE /comments/questions/{question_id}
func (h *CommentHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cascade.DeleteQuestionComment(ctx, chi.URLParam(r, "question_id"), middleware.GetUserID(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
