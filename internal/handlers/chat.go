package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

const maxMessageLength = 2000

// ChatBroadcaster pushes chat events to a match room.
type ChatBroadcaster interface {
	BroadcastMatchMessage(matchID int64, msg models.Message)
	BroadcastRecall(matchID int64, messageID int64)
}

// ChatHandler manages chat between accepted matches.
type ChatHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	hub           ChatBroadcaster
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, hub ChatBroadcaster) *ChatHandler {
	return &ChatHandler{conversations: conversations, messages: messages, hub: hub}
}

// ListChats returns one conversation per accepted match of the caller.
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.conversations.ListConversations(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": nonNil(chats)})
}

// authorizeMatch parses :match_id and checks the caller may chat in it.
func (h *ChatHandler) authorizeMatch(c *gin.Context) (int64, bool) {
	matchID, ok := idParam(c, "match_id", "invalid match id")
	if !ok {
		return 0, false
	}

	allowed, err := h.conversations.CanChat(c.Request.Context(), matchID, c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify match"})
		return 0, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this match"})
		return 0, false
	}
	return matchID, true
}

// GetMessages returns a page of messages, newest first. before_id pages back.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	matchID, ok := h.authorizeMatch(c)
	if !ok {
		return
	}

	var beforeID int64
	if raw := c.Query("before_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before_id"})
			return
		}
		beforeID = parsed
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), matchID, beforeID, limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": nonNil(msgs)})
}

// PostMessage stores a chat message and broadcasts it.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	matchID, ok := h.authorizeMatch(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || len([]rune(content)) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message must be 1-2000 characters"})
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), matchID, c.GetInt64("userID"), content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastMatchMessage(matchID, msg)
	}
	c.JSON(http.StatusCreated, msg)
}

// RecallMessage hides a message for both sides (sender only).
func (h *ChatHandler) RecallMessage(c *gin.Context) {
	matchID, ok := h.authorizeMatch(c)
	if !ok {
		return
	}
	messageID, ok := idParam(c, "message_id", "invalid message id")
	if !ok {
		return
	}

	userID := c.GetInt64("userID")
	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.MatchID != matchID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can recall a message"})
		return
	}

	if err := h.messages.RecallMessage(c.Request.Context(), messageID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not recall message"})
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRecall(matchID, messageID)
	}
	c.Status(http.StatusNoContent)
}
