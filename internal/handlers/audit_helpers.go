package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

// requestIDFromContext returns the request id, minting and caching one when
// the client did not send X-Request-ID.
func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(requestIDContextKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	c.Header("X-Request-ID", requestID)
	return requestID
}

// auditUserID renders the authenticated caller for the audit envelope. Routes
// outside the auth middleware have no caller.
func auditUserID(c *gin.Context) *string {
	userID := c.GetInt64("userID")
	if userID <= 0 {
		return nil
	}
	s := strconv.FormatInt(userID, 10)
	return &s
}
