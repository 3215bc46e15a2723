package observability

// EventEnvelope wraps connection lifecycle events published to the broker.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	RequestID string      `json:"request_id,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

// WSEventPayload describes a websocket connect, disconnect or error.
type WSEventPayload struct {
	Kind       string `json:"kind"`
	ResourceID int64  `json:"resource_id"`
	Event      string `json:"event"`
	ConnID     string `json:"conn_id"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason"`
	UserID     int64  `json:"user_id"`
	DeviceID   string `json:"device_id,omitempty"`
	IP         string `json:"ip,omitempty"`
}

// WSRoutingKey is the broker routing key for websocket events of a kind.
func WSRoutingKey(kind string) string {
	return "ws_events." + kind
}
