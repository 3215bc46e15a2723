package ws

import "time"

// ConnInfo identifies one websocket connection in lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int64
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Age is how long the connection has been open. Zero before it is registered.
func (i ConnInfo) Age() time.Duration {
	if i.ConnectedAt.IsZero() {
		return 0
	}
	return time.Since(i.ConnectedAt)
}
