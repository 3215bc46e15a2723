package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", IPFromRequest(r))

	r.Header.Set("X-Real-Ip", "172.16.0.2")
	assert.Equal(t, "172.16.0.2", IPFromRequest(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", IPFromRequest(r))
}

func TestRequestAndDeviceIDs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/notifications?device_id=phone-1", nil)
	assert.Equal(t, "phone-1", DeviceIDFromRequest(r))
	assert.NotEmpty(t, RequestIDFromRequest(r))

	r.Header.Set("X-Device-Id", "laptop")
	r.Header.Set("X-Request-Id", "req-9")
	assert.Equal(t, "laptop", DeviceIDFromRequest(r))
	assert.Equal(t, "req-9", RequestIDFromRequest(r))
}
