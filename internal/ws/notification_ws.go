package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"match-service/internal/auth"
)

// NotificationWebSocketHandler attaches a connection to the caller's private
// channel, the delivery end of the notification fan-out.
type NotificationWebSocketHandler struct {
	hub       *Hub
	validator auth.TokenValidator
}

func NewNotificationWebSocketHandler(hub *Hub, validator auth.TokenValidator) *NotificationWebSocketHandler {
	return &NotificationWebSocketHandler{hub: hub, validator: validator}
}

func (h *NotificationWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("match-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := authenticate(c, h.validator)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	h.hub.serve(c, span, userID, room{
		kind:       kindNotifications,
		resourceID: userID,
		add:        h.hub.AddUserClient,
		remove:     h.hub.RemoveUserClient,
	})
}
