package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stuffbox-backend/internal/handlers"
	"stuffbox-backend/internal/middleware"
	"stuffbox-backend/internal/repository"
	"stuffbox-backend/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const limiterIdle = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize repositories
	stores := services.Stores{
		Users:       repository.NewUserRepository(db),
		Stuff:       repository.NewStuffRepository(db),
		Collections: repository.NewCollectionRepository(db),
		Comments:    repository.NewCommentRepository(db),
	}

	var views *services.ViewGate
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		views = services.NewViewGate(client, cfg.Redis.ViewWindow)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("View de-duplication enabled")
	}

	files, err := services.NewS3FileStore(ctx, cfg.AWS)
	if err != nil {
		return fmt.Errorf("failed to create file store: %w", err)
	}

	wsHub := services.NewWSHub()
	notifier, err := services.NewPushNotifier(wsHub, stores.Users, cfg.APNs)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	// Initialize services
	projector := services.NewProjector(stores.Users, stores.Stuff, cfg.Assets.BaseURL)
	userService := services.NewUserService(stores, projector, files, cfg.JWT.Secret)
	relationService := services.NewRelationService(stores, projector, notifier)
	cascadeService := services.NewCascadeService(stores, files)
	stuffService := services.NewStuffService(stores, projector, views, files)
	collectionService := services.NewCollectionService(stores, projector, views)
	commentService := services.NewCommentService(stores, projector, notifier)
	uploadService := services.NewUploadService(stores.Users, files)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	go pruneLimiter(ctx, limiter)

	router := handlers.NewRouter(handlers.Handlers{
		Users:       handlers.NewUserHandler(userService, relationService, cascadeService),
		Stuff:       handlers.NewStuffHandler(stuffService, relationService, cascadeService),
		Collections: handlers.NewCollectionHandler(collectionService, relationService, cascadeService),
		Comments:    handlers.NewCommentHandler(commentService, cascadeService),
		Uploads:     handlers.NewUploadHandler(uploadService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, userService),
	}, userService, limiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// hijacked WebSocket connections are not tracked by Shutdown; their read loops end when the process exits
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func pruneLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(limiterIdle)
		}
	}
}
