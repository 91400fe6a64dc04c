package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/pagination"
	"stuffbox-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// StuffHandler handles item requests
type StuffHandler struct {
	stuff     *services.StuffService
	relations *services.RelationService
	cascade   *services.CascadeService
}

// NewStuffHandler creates a new stuff handler
func NewStuffHandler(stuff *services.StuffService, relations *services.RelationService, cascade *services.CascadeService) *StuffHandler {
	return &StuffHandler{
		stuff:     stuff,
		relations: relations,
		cascade:   cascade,
	}
}

// Create handles POST /stuff
func (h *StuffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateStuffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.stuff.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// List handles GET /stuff
func (h *StuffHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.StuffQuery{
		Text:        q.Get("text"),
		Category:    models.Category(q.Get("category")),
		Price:       queryFloatPtr(q, "price"),
		HasOffer:    queryBoolPtr(q, "hasOffer"),
		OfferPrice:  queryFloatPtr(q, "offerPrice"),
		IsMine:      queryBool(q, "isMine"),
		OtherUserID: q.Get("otherUserId"),
		SortBy:      q.Get("sortBy"),
	}

	ctx := r.Context()
	views, total, err := h.stuff.List(ctx, middleware.GetUserID(ctx), query, pagination.Parse(q))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, total))
}

// Get handles GET /stuff/{stuff_id}
func (h *StuffHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.stuff.Get(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "stuff_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /stuff/{stuff_id}
func (h *StuffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateStuffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.stuff.Update(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "stuff_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /stuff/{stuff_id}
func (h *StuffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cascade.DeleteStuff(ctx, chi.URLParam(r, "stuff_id"), middleware.GetUserID(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// View handles POST /stuff/{stuff_id}/view
func (h *StuffHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.stuff.View(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "stuff_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Like handles POST /stuff/{stuff_id}/like
func (h *StuffHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.LikeStuff(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "stuff_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Unlike handles DELETE /stuff/{stuff_id}/like
func (h *StuffHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.UnlikeStuff(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "stuff_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
