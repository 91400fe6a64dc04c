package services

import (
	"context"
	"fmt"

	"stuffbox-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Notifier delivers activity events to a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg WSMessage)
}

// PushNotifier sends over the WebSocket hub when the user is online and falls
// back to APNs when they are offline and registered a push token.
type PushNotifier struct {
	hub   *WSHub
	users UserStore
	apns  *apns2.Client
	topic string
}

// NewPushNotifier creates a notifier. APNs is disabled when cfg.CertFile is empty.
func NewPushNotifier(hub *WSHub, users UserStore, cfg config.APNsConfig) (*PushNotifier, error) {
	n := &PushNotifier{hub: hub, users: users, topic: cfg.Topic}
	if cfg.CertFile == "" {
		return n, nil
	}

	cert, err := certificate.FromP12File(cfg.CertFile, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}
	client := apns2.NewClient(cert)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	n.apns = client
	return n, nil
}

// Notify implements Notifier
func (n *PushNotifier) Notify(ctx context.Context, userID string, msg WSMessage) {
	if n.hub != nil && n.hub.IsOnline(userID) {
		if err := n.hub.SendToUser(userID, msg); err == nil {
			return
		} else {
			log.Warn().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("WebSocket delivery failed")
		}
	}

	if n.apns == nil {
		return
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user.PushToken == nil || *user.PushToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       n.topic,
		Payload:     payload.NewPayload().AlertTitle("stuffbox").AlertBody(pushText(msg)).Custom("type", msg.Type).Custom("actor_id", msg.ActorID),
	}

	res, err := n.apns.PushWithContext(ctx, notification)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		log.Warn().
			Str("user_id", userID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push notification rejected")
	}
}

func pushText(msg WSMessage) string {
	switch msg.Type {
	case EventFollowed:
		return "You have a new follower"
	case EventStuffLiked:
		return "Someone liked your stuff"
	case EventCollectionLiked:
		return "Someone liked your collection"
	case EventQuestionAsked:
		return "Someone asked about your stuff"
	case EventAnswered:
		return "Your question has a new answer"
	}
	return msg.Type
}

// notify dispatches in the background so delivery never slows or fails the mutation
func notify(ctx context.Context, n Notifier, userID string, msg WSMessage) {
	if n == nil || userID == "" || userID == msg.ActorID {
		return
	}
	go n.Notify(context.WithoutCancel(ctx), userID, msg)
}
