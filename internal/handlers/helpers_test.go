package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"match-service/internal/models"
)

const callerID int64 = 1

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", callerID)
		c.Next()
	})
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type broadcastRecorder struct {
	mu       sync.Mutex
	messages []models.Message
	recalls  []int64
	closed   []int64
}

func (b *broadcastRecorder) BroadcastMatchMessage(matchID int64, msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *broadcastRecorder) BroadcastRecall(matchID int64, messageID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recalls = append(b.recalls, messageID)
}

func (b *broadcastRecorder) DisconnectUser(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, userID)
}
