package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"match-service/internal/auth"
	"match-service/internal/observability"
)

var errMissingToken = errors.New("missing token")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// tokenFromRequest accepts "Authorization: Bearer <t>" or ?token=<t>.
func tokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := auth.BearerToken(header)
		if !ok {
			return "", errMissingToken
		}
		return token, nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

func authenticate(c *gin.Context, validator auth.TokenValidator) (int64, error) {
	token, err := tokenFromRequest(c)
	if err != nil {
		return 0, err
	}
	claims, err := validator.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// room binds a connection to one hub room.
type room struct {
	kind       string
	resourceID int64
	add        func(int64, *Client)
	remove     func(int64, *Client)
}

// serve upgrades the request, registers the client in r and keeps reading
// until the peer goes away. The caller has already authorised userID.
func (h *Hub) serve(c *gin.Context, span trace.Span, userID int64, r room) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)
	r.add(r.resourceID, client)

	// The handshake context ends with the HTTP handler.
	ctx := context.WithoutCancel(c.Request.Context())
	observability.IncWSActive(r.kind)
	h.emit(ctx, r.kind, "ws_connect", r.resourceID, info, "")

	go h.readLoop(ctx, conn, client, r)
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, client *Client, r room) {
	done := make(chan struct{})
	var closeReason string
	defer func() {
		close(done)
		r.remove(r.resourceID, client)
		client.close()
		observability.DecWSActive(r.kind)
		h.emit(ctx, r.kind, "ws_disconnect", r.resourceID, client.info, closeReason)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go func() {
		ticker := time.NewTicker(h.pongWait * 9 / 10)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.ping(h.writeWait); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.emit(ctx, r.kind, "ws_error", r.resourceID, client.info, closeReason)
			}
			return
		}
	}
}
