package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"match-service/internal/models"
	"match-service/internal/observability"
)

// Transport hands an event to a broker under a routing key.
type Transport interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Inbox persists a copy of each event for the recipient.
type Inbox interface {
	CreateNotification(ctx context.Context, userID int64, eventID string, eventType models.EventType, payload json.RawMessage) (models.Notification, error)
}

// Deliverer pushes an event to the recipient's live connections.
type Deliverer interface {
	DeliverToUser(ev Event) int
}

// Fanout implements matching.Notifier. With a transport configured, events
// reach websockets through the broker consumer. Without one they are handed
// straight to the local hub.
type Fanout struct {
	inbox         Inbox
	transport     Transport
	transportName string
	local         Deliverer
	now           func() time.Time
}

func NewFanout(inbox Inbox, transport Transport, transportName string, local Deliverer) *Fanout {
	return &Fanout{
		inbox:         inbox,
		transport:     transport,
		transportName: transportName,
		local:         local,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (f *Fanout) Publish(ctx context.Context, userID int64, eventType models.EventType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Payload:    body,
		OccurredAt: f.now(),
	}

	if f.inbox != nil {
		n, err := f.inbox.CreateNotification(ctx, userID, ev.ID, eventType, body)
		if err != nil {
			log.Printf("notify inbox write failed user_id=%d event=%s: %v", userID, eventType, err)
		} else {
			ev.NotificationID = n.ID
		}
	}

	if f.transport != nil {
		if err := f.transport.Publish(ctx, RoutingKey(userID), ev); err != nil {
			return err
		}
		observability.IncNotifyPublished(string(eventType), f.transportName)
		return nil
	}

	if f.local != nil {
		f.local.DeliverToUser(ev)
		observability.IncNotifyPublished(string(eventType), "local")
	}
	return nil
}
