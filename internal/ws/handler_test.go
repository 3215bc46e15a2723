package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/auth"
	"match-service/internal/models"
	"match-service/internal/notify"
)

type chatAuthorizer map[int64][]int64

func (a chatAuthorizer) CanChat(_ context.Context, matchID, userID int64) (bool, error) {
	for _, id := range a[matchID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func newTestServer(t *testing.T, hub *Hub, validator *auth.Validator) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/notifications", NewNotificationWebSocketHandler(hub, validator).Handle)
	r.GET("/ws/chats/:match_id", NewChatWebSocketHandler(hub, chatAuthorizer{3: {1, 2}}, validator).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationSocketReceivesEvents(t *testing.T) {
	hub := NewHub()
	validator := auth.NewValidator("secret", nil)
	srv := newTestServer(t, hub, validator)
	token, err := validator.GenerateToken(1, time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/notifications?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return userConnCount(hub, 1) == 1 })
	hub.DeliverToUser(notify.Event{ID: "ev-1", Type: models.EventLikedYou, UserID: 1, Payload: json.RawMessage(`{}`)})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got notify.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, models.EventLikedYou, got.Type)
}

func TestNotificationSocketAcceptsAuthorizationHeader(t *testing.T) {
	hub := NewHub()
	validator := auth.NewValidator("secret", nil)
	srv := newTestServer(t, hub, validator)
	token, err := validator.GenerateToken(4, time.Hour)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/notifications"), header)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return userConnCount(hub, 4) == 1 })
}

func TestNotificationSocketRejectsBadToken(t *testing.T) {
	srv := newTestServer(t, NewHub(), auth.NewValidator("secret", nil))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/notifications?token=nope"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocketCloseUnregistersClient(t *testing.T) {
	hub := NewHub()
	validator := auth.NewValidator("secret", nil)
	srv := newTestServer(t, hub, validator)
	token, err := validator.GenerateToken(1, time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/notifications?token="+token), nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return userConnCount(hub, 1) == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return userConnCount(hub, 1) == 0 })
}

func TestChatSocketRequiresParticipant(t *testing.T) {
	hub := NewHub()
	validator := auth.NewValidator("secret", nil)
	srv := newTestServer(t, hub, validator)

	outsider, err := validator.GenerateToken(9, time.Hour)
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/3?token="+outsider), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/abc?token="+outsider), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatSocketReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	validator := auth.NewValidator("secret", nil)
	srv := newTestServer(t, hub, validator)
	token, err := validator.GenerateToken(2, time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/chats/3?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.matchRooms[3]) == 1
	})
	hub.BroadcastMatchMessage(3, models.Message{ID: 1, MatchID: 3, SenderID: 1, Content: "hello"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.ChatEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "message", got.Type)
	assert.Equal(t, "hello", got.Message.Content)
}
