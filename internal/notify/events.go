package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"match-service/internal/models"
)

const routingKeyPrefix = "notifications.user."

// BindingKey matches every per-user routing key on a topic exchange.
const BindingKey = routingKeyPrefix + "*"

// Event is what travels over the broker and is written to a websocket.
// ID is unique per recipient so consumers can drop redeliveries.
type Event struct {
	ID             string           `json:"id"`
	Type           models.EventType `json:"type"`
	UserID         int64            `json:"user_id"`
	NotificationID int64            `json:"notification_id,omitempty"`
	Payload        json.RawMessage  `json:"payload"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// RoutingKey is the per-user channel name.
func RoutingKey(userID int64) string {
	return routingKeyPrefix + strconv.FormatInt(userID, 10)
}

// UserFromRoutingKey is the inverse of RoutingKey.
func UserFromRoutingKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, routingKeyPrefix)
	if !ok {
		return 0, fmt.Errorf("routing key %q is not a user channel", key)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Decode parses a broker message body into an Event.
func Decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, err
	}
	if ev.ID == "" || ev.UserID == 0 {
		return Event{}, fmt.Errorf("event missing id or user")
	}
	return ev, nil
}
