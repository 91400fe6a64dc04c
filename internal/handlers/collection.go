package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/pagination"
	"stuffbox-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// CollectionHandler handles collection requests
type CollectionHandler struct {
	collections *services.CollectionService
	relations   *services.RelationService
	cascade     *services.CascadeService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collections *services.CollectionService, relations *services.RelationService, cascade *services.CascadeService) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		relations:   relations,
		cascade:     cascade,
	}
}

// Create handles POST /collections
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.collections.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// List handles GET /collections
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.CollectionQuery{
		Text:        q.Get("text"),
		IsMine:      queryBool(q, "isMine"),
		OtherUserID: q.Get("otherUserId"),
		SortBy:      q.Get("sortBy"),
	}

	ctx := r.Context()
	views, total, err := h.collections.List(ctx, middleware.GetUserID(ctx), query, pagination.Parse(q))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, total))
}

// Get handles GET /collections/{collection_id}; limit and skip page the members
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.MemberQuery{
		Text:     q.Get("text"),
		Category: models.Category(q.Get("category")),
	}

	ctx := r.Context()
	view, err := h.collections.Get(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"), query, pagination.Parse(q))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Update handles PATCH /collections/{collection_id}
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.collections.Update(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /collections/{collection_id}
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cascade.DeleteCollection(ctx, chi.URLParam(r, "collection_id"), middleware.GetUserID(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AddStuff handles POST /collections/{collection_id}/stuff
func (h *CollectionHandler) AddStuff(w http.ResponseWriter, r *http.Request) {
	var req services.MembersRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.collections.AddStuff(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// RemoveStuff handles DELETE /collections/{collection_id}/stuff/{stuff_id}
func (h *CollectionHandler) RemoveStuff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.collections.RemoveStuff(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"), chi.URLParam(r, "stuff_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// View handles POST /collections/{collection_id}/view
func (h *CollectionHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.collections.View(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Like handles POST /collections/{collection_id}/like
func (h *CollectionHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.LikeCollection(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Unlike handles DELETE /collections/{collection_id}/like
func (h *CollectionHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.UnlikeCollection(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "collection_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
