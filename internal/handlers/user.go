package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/pagination"
	"stuffbox-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users     *services.UserService
	relations *services.RelationService
	cascade   *services.CascadeService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, relations *services.RelationService, cascade *services.CascadeService) *UserHandler {
	return &UserHandler{
		users:     users,
		relations: relations,
		cascade:   cascade,
	}
}

// Signup handles POST /users
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.users.Signup(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info().Str("user_id", resp.User.ID).Msg("User created")
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.users.Login(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.Logout(ctx, middleware.GetUserID(ctx), middleware.GetToken(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LogoutAll handles POST /users/logoutAll
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.users.LogoutAll(ctx, middleware.GetUserID(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.users.Me(ctx, middleware.GetUserID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// UpdateMe handles PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.users.UpdateMe(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DeleteMe handles DELETE /users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cascade.DeleteUser(ctx, middleware.GetUserID(ctx)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AvatarRequest points the avatar at an uploaded key
type AvatarRequest struct {
	Key string `json:"key"`
}

// UpdateAvatar handles PATCH /users/me/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	view, err := h.users.UpdateAvatar(ctx, middleware.GetUserID(ctx), req.Key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// PushTokenRequest registers a device for offline push; null or "" clears it
type PushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// UpdatePushToken handles PUT /users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.users.UpdatePushToken(ctx, middleware.GetUserID(ctx), req.PushToken); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := services.UserQuery{
		Text:      q.Get("text"),
		NickName:  q.Get("nickName"),
		FirstName: q.Get("firstName"),
		LastName:  q.Get("lastName"),
		Email:     q.Get("email"),
		Me:        queryBool(q, "me"),
		SortBy:    q.Get("sortBy"),
	}

	ctx := r.Context()
	views, total, err := h.users.ListUsers(ctx, middleware.GetUserID(ctx), query, pagination.Parse(q))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, total))
}

// GetUser handles GET /users/{user_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.users.GetUser(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Followers handles GET /users/{user_id}/followers
func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.users.Followers(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, len(views)))
}

// Following handles GET /users/{user_id}/following
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.users.Following(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, len(views)))
}

// Follow handles POST /users/{user_id}/follow
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.Follow(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Unfollow handles DELETE /users/{user_id}/follow
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.relations.Unfollow(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "user_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// LikedStuff handles GET /users/me/liked-stuff
func (h *UserHandler) LikedStuff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, total, err := h.users.LikedStuff(ctx, middleware.GetUserID(ctx), pagination.Parse(r.URL.Query()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, total))
}

// LikedCollections handles GET /users/me/liked-collections
func (h *UserHandler) LikedCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, total, err := h.users.LikedCollections(ctx, middleware.GetUserID(ctx), pagination.Parse(r.URL.Query()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newList(views, total))
}
