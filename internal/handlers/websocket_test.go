package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stuffbox-backend/internal/config"
	"stuffbox-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth map[string]string

func (a staticAuth) Authenticate(_ context.Context, token string) (string, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return "", services.ErrUnauthenticated
}

func dial(t *testing.T, server *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) services.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg services.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketPushesNotifications(t *testing.T) {
	hub := services.NewWSHub()
	h := NewWebSocketHandler(hub, staticAuth{"good": "user-1"})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(server.Close)

	_, resp, err := dial(t, server, "bad")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := dial(t, server, "good")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, services.EventConnected, readMessage(t, conn).Type)
	assert.True(t, hub.IsOnline("user-1"))

	notifier, err := services.NewPushNotifier(hub, nil, config.APNsConfig{})
	require.NoError(t, err)
	notifier.Notify(context.Background(), "user-1", services.WSMessage{Type: services.EventFollowed, ActorID: "user-2"})

	msg := readMessage(t, conn)
	assert.Equal(t, services.EventFollowed, msg.Type)
	assert.Equal(t, "user-2", msg.ActorID)
	assert.NotZero(t, msg.Timestamp)

	// the channel is push only
	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: "subscribe"}))
	msg = readMessage(t, conn)
	assert.Equal(t, services.EventError, msg.Type)
	assert.Equal(t, "Unknown message type", msg.Message)

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline("user-1") }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketReplacesOlderConnection(t *testing.T) {
	hub := services.NewWSHub()
	h := NewWebSocketHandler(hub, staticAuth{"good": "user-1"})
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(server.Close)

	first, _, err := dial(t, server, "good")
	require.NoError(t, err)
	defer first.Close()
	readMessage(t, first)

	second, _, err := dial(t, server, "good")
	require.NoError(t, err)
	defer second.Close()
	readMessage(t, second)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = first.ReadMessage()
	assert.Error(t, err)

	// the replaced handler's cleanup must not drop the newer connection
	assert.Eventually(t, func() bool { return hub.Online() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.SendToUser("user-1", services.WSMessage{Type: services.EventStuffLiked}))
	assert.Equal(t, services.EventStuffLiked, readMessage(t, second).Type)
}
