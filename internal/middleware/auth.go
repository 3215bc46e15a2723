package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/auth"
)

const (
	UserIDKey = "userID"
	ClaimsKey = "claims"
)

// AuthMiddleware validates the bearer token and stores the caller's id under
// "userID" as int64. The actor of every request comes from here only.
func AuthMiddleware(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrRevokedToken) {
				msg = "token revoked"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by AuthMiddleware.
func ClaimsFromContext(c *gin.Context) *auth.Claims {
	if val, ok := c.Get(ClaimsKey); ok {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
