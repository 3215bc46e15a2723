package matchingtest

import (
	"context"
	"sync"

	"match-service/internal/matching"
	"match-service/internal/models"
)

// Published is one call captured by Recorder.
type Published struct {
	UserID  int64
	Type    models.EventType
	Payload any
}

// Recorder is a Notifier that keeps every event in order.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	// Err, when set, is returned from every Publish after recording.
	Err error
}

var _ matching.Notifier = (*Recorder)(nil)

func (r *Recorder) Publish(ctx context.Context, userID int64, eventType models.EventType, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{UserID: userID, Type: eventType, Payload: payload})
	return r.Err
}

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of the given type were sent to userID.
func (r *Recorder) Count(userID int64, eventType models.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.UserID == userID && ev.Type == eventType {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
