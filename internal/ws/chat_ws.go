package ws

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"match-service/internal/auth"
)

// ChatAuthorizer reports whether a user may join a match's chat room.
type ChatAuthorizer interface {
	CanChat(ctx context.Context, matchID, userID int64) (bool, error)
}

// ChatWebSocketHandler handles match chat websocket connections.
type ChatWebSocketHandler struct {
	hub       *Hub
	chats     ChatAuthorizer
	validator auth.TokenValidator
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chats ChatAuthorizer, validator auth.TokenValidator) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chats: chats, validator: validator}
}

// Handle upgrades the connection and registers the client in the match room.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	matchID, err := strconv.ParseInt(c.Param("match_id"), 10, 64)
	if err != nil || matchID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
		return
	}

	ctx, span := otel.Tracer("match-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticate(c, h.validator)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ok, err := h.chats.CanChat(c.Request.Context(), matchID, userID)
	if err != nil || !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	h.hub.serve(c, span, userID, room{
		kind:       kindChat,
		resourceID: matchID,
		add:        h.hub.AddMatchClient,
		remove:     h.hub.RemoveMatchClient,
	})
}
