package handlers

import (
	"net/http"

	"stuffbox-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Handlers bundles every route group
type Handlers struct {
	Users       *UserHandler
	Stuff       *StuffHandler
	Collections *CollectionHandler
	Comments    *CommentHandler
	Uploads     *UploadHandler
	WebSocket   *WebSocketHandler
}

// NewRouter wires the API routes. limiter may be nil.
func NewRouter(h Handlers, auth middleware.Authenticator, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.Users.Signup)
		r.Post("/users/login", h.Users.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(auth))
			if limiter != nil {
				r.Use(limiter.Middleware)
			}

			r.Post("/users/logout", h.Users.Logout)
			r.Post("/users/logoutAll", h.Users.LogoutAll)
			r.Get("/users", h.Users.ListUsers)
			r.Get("/users/me", h.Users.Me)
			r.Patch("/users/me", h.Users.UpdateMe)
			r.Delete("/users/me", h.Users.DeleteMe)
			r.Patch("/users/me/avatar", h.Users.UpdateAvatar)
			r.Put("/users/me/push-token", h.Users.UpdatePushToken)
			r.Get("/users/me/liked-stuff", h.Users.LikedStuff)
			r.Get("/users/me/liked-collections", h.Users.LikedCollections)
			r.Get("/users/{user_id}", h.Users.GetUser)
			r.Get("/users/{user_id}/followers", h.Users.Followers)
			r.Get("/users/{user_id}/following", h.Users.Following)
			r.Post("/users/{user_id}/follow", h.Users.Follow)
			r.Delete("/users/{user_id}/follow", h.Users.Unfollow)

			r.Post("/stuff", h.Stuff.Create)
			r.Get("/stuff", h.Stuff.List)
			r.Get("/stuff/{stuff_id}", h.Stuff.Get)
			r.Patch("/stuff/{stuff_id}", h.Stuff.Update)
			r.Delete("/stuff/{stuff_id}", h.Stuff.Delete)
			r.Post("/stuff/{stuff_id}/view", h.Stuff.View)
			r.Post("/stuff/{stuff_id}/like", h.Stuff.Like)
			r.Delete("/stuff/{stuff_id}/like", h.Stuff.Unlike)

			r.Post("/collections", h.Collections.Create)
			r.Get("/collections", h.Collections.List)
			r.Get("/collections/{collection_id}", h.Collections.Get)
			r.Patch("/collections/{collection_id}", h.Collections.Update)
			r.Delete("/collections/{collection_id}", h.Collections.Delete)
			r.Post("/collections/{collection_id}/stuff", h.Collections.AddStuff)
			r.Delete("/collections/{collection_id}/stuff/{stuff_id}", h.Collections.RemoveStuff)
			r.Post("/collections/{collection_id}/view", h.Collections.View)
			r.Post("/collections/{collection_id}/like", h.Collections.Like)
			r.Delete("/collections/{collection_id}/like", h.Collections.Unlike)

			r.Post("/comments/ratings", h.Comments.Rate)
			r.Post("/comments/questions", h.Comments.Ask)
			r.Post("/comments/questions/{question_id}/answers", h.Comments.Answer)
			r.Delete("/comments/questions/{question_id}", h.Comments.DeleteQuestion)

			r.Post("/uploads/images", h.Uploads.PresignImage)
		})
	})

	// WebSocket route
	r.Get("/ws", h.WebSocket.HandleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}
