package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ViewGate decides whether a view should bump a counter. A viewer counts once
// per entity per window.
type ViewGate struct {
	client *redis.Client
	window time.Duration
}

// NewViewGate creates a gate. A nil client counts every view.
func NewViewGate(client *redis.Client, window time.Duration) *ViewGate {
	return &ViewGate{client: client, window: window}
}

// Allow reports whether viewerID's view of kind/id should be counted. Redis
// errors fail open.
func (g *ViewGate) Allow(ctx context.Context, kind, id, viewerID string) bool {
	if g == nil || g.client == nil {
		return true
	}
	key := "views:" + kind + ":" + id + ":" + viewerID
	ok, err := g.client.SetNX(ctx, key, 1, g.window).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("View gate unavailable, counting view")
		return true
	}
	return ok
}
