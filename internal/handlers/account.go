package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/auth"
	"match-service/internal/middleware"
	"match-service/internal/repositories"
	"match-service/internal/telemetry"
)

// SessionCloser drops a user's live connections.
type SessionCloser interface {
	DisconnectUser(userID int64)
}

// TokenRevoker invalidates the token a request was made with.
type TokenRevoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type AccountHandler struct {
	accounts repositories.AccountRepository
	sessions SessionCloser
	revoker  TokenRevoker
	audit    *telemetry.AuditEmitter
}

func NewAccountHandler(accounts repositories.AccountRepository, sessions SessionCloser, revoker TokenRevoker, audit *telemetry.AuditEmitter) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions, revoker: revoker, audit: audit}
}

// DeleteAccount removes the caller and all records that reference them.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID := c.GetInt64("userID")
	if err := h.accounts.DeleteAccount(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}

	if h.sessions != nil {
		h.sessions.DisconnectUser(userID)
	}
	if h.revoker != nil {
		if err := h.revoker.Revoke(c.Request.Context(), middleware.ClaimsFromContext(c)); err != nil {
			log.Printf("revoke token failed: user_id=%d err=%v", userID, err)
		}
	}

	h.audit.Emit(c.Request.Context(), telemetry.LevelInfo, "account deleted", requestIDFromContext(c), auditUserID(c))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
