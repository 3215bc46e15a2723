package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/auth"
)

type revokedAll struct{}

func (revokedAll) Add(context.Context, string, time.Time) error        { return nil }
func (revokedAll) IsBlacklisted(context.Context, string) (bool, error) { return true, nil }

func newRouter(v auth.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(UserIDKey)})
	})
	return r
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	v := auth.NewValidator("secret", nil)
	token, err := v.GenerateToken(15, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":15}`, w.Body.String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	v := auth.NewValidator("secret", nil)
	cases := map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"bad token": "Bearer abc",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			newRouter(v).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddlewareRejectsRevoked(t *testing.T) {
	v := auth.NewValidator("secret", revokedAll{})
	token, err := v.GenerateToken(3, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")
}
