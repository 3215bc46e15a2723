package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/repositories"
)

// NotificationHandler serves the persisted notification inbox.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	list, err := h.notifications.ListNotifications(c.Request.Context(), c.GetInt64("userID"), limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": nonNil(list)})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid notification id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), c.GetInt64("userID"), id); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearRead deletes every read notification of the caller.
func (h *NotificationHandler) ClearRead(c *gin.Context) {
	n, err := h.notifications.DeleteRead(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
