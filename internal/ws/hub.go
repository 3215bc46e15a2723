package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"match-service/internal/models"
	"match-service/internal/notify"
	"match-service/internal/observability"
)

const (
	kindNotifications = "notifications"
	kindChat          = "chat"

	defaultDedupHistory = 256
	defaultWriteWait    = 10 * time.Second
	defaultPongWait     = 60 * time.Second
)

// EventSink receives connection lifecycle events.
type EventSink interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Hub maintains per-user notification rooms and per-match chat rooms.
type Hub struct {
	userRooms    map[int64]map[*Client]bool
	matchRooms   map[int64]map[*Client]bool
	seen         map[int64]*seenSet
	dedupHistory int
	writeWait    time.Duration
	pongWait     time.Duration
	sink         EventSink
	mu           sync.RWMutex
}

type HubOption func(*Hub)

func WithEventSink(sink EventSink) HubOption {
	return func(h *Hub) { h.sink = sink }
}

func WithDedupHistory(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.dedupHistory = n
		}
	}
}

func WithWriteWait(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

func WithPongWait(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		userRooms:    make(map[int64]map[*Client]bool),
		matchRooms:   make(map[int64]map[*Client]bool),
		seen:         make(map[int64]*seenSet),
		dedupHistory: defaultDedupHistory,
		writeWait:    defaultWriteWait,
		pongWait:     defaultPongWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddUserClient registers a connection on a user's private channel.
func (h *Hub) AddUserClient(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	addTo(h.userRooms, userID, c)
}

// RemoveUserClient removes a notification connection.
func (h *Hub) RemoveUserClient(userID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removeFrom(h.userRooms, userID, c)
	if len(h.userRooms[userID]) == 0 {
		delete(h.seen, userID)
	}
}

// AddMatchClient registers a connection to a match chat room.
func (h *Hub) AddMatchClient(matchID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	addTo(h.matchRooms, matchID, c)
}

// RemoveMatchClient removes a chat connection.
func (h *Hub) RemoveMatchClient(matchID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	removeFrom(h.matchRooms, matchID, c)
}

// DeliverToUser writes ev to every connection of ev.UserID and returns how
// many received it. An event ID already delivered to the user is dropped.
// IDs are only remembered while the user has a connection on this hub.
func (h *Hub) DeliverToUser(ev notify.Event) int {
	h.mu.Lock()
	room := h.userRooms[ev.UserID]
	if len(room) == 0 {
		h.mu.Unlock()
		return 0
	}
	seen, ok := h.seen[ev.UserID]
	if !ok {
		seen = newSeenSet(h.dedupHistory)
		h.seen[ev.UserID] = seen
	}
	fresh := ev.ID == "" || seen.add(ev.ID)
	clients := snapshot(room)
	h.mu.Unlock()

	if !fresh {
		observability.IncWSEvent(kindNotifications, "duplicate_dropped")
		return 0
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return 0
	}
	return h.writeAll(kindNotifications, ev.UserID, clients, payload, h.RemoveUserClient)
}

// BroadcastMatchMessage sends a new chat message to everyone in the match room.
func (h *Hub) BroadcastMatchMessage(matchID int64, msg models.Message) {
	payload, _ := json.Marshal(models.ChatEvent{Type: "message", Message: &msg})
	h.broadcastMatch(matchID, payload)
}

// BroadcastRecall notifies the match room that a message was recalled.
func (h *Hub) BroadcastRecall(matchID int64, messageID int64) {
	payload, _ := json.Marshal(models.ChatEvent{Type: "recall", MessageID: messageID})
	h.broadcastMatch(matchID, payload)
}

func (h *Hub) broadcastMatch(matchID int64, payload []byte) {
	h.mu.RLock()
	clients := snapshot(h.matchRooms[matchID])
	h.mu.RUnlock()
	h.writeAll(kindChat, matchID, clients, payload, h.RemoveMatchClient)
}

// DisconnectUser closes every connection opened by userID.
func (h *Hub) DisconnectUser(userID int64) {
	h.mu.Lock()
	var victims []*Client
	for c := range h.userRooms[userID] {
		victims = append(victims, c)
	}
	delete(h.userRooms, userID)
	delete(h.seen, userID)
	for matchID, room := range h.matchRooms {
		for c := range room {
			if c.info.UserID == userID {
				victims = append(victims, c)
				delete(room, c)
			}
		}
		if len(room) == 0 {
			delete(h.matchRooms, matchID)
		}
	}
	h.mu.Unlock()

	for _, c := range victims {
		c.close()
	}
}

func (h *Hub) writeAll(kind string, resourceID int64, clients []*Client, payload []byte, remove func(int64, *Client)) int {
	delivered := 0
	for _, c := range clients {
		if err := c.writeText(payload, h.writeWait); err != nil {
			log.Printf("websocket write error: %v", err)
			c.close()
			remove(resourceID, c)
			h.emit(context.Background(), kind, "ws_error", resourceID, c.info, err.Error())
			continue
		}
		delivered++
	}
	return delivered
}

// emit publishes a lifecycle event and counts it.
func (h *Hub) emit(ctx context.Context, kind, name string, resourceID int64, info ConnInfo, reason string) {
	observability.IncWSEvent(kind, name)
	if h.sink == nil {
		return
	}
	var duration int64
	if name != "ws_connect" {
		duration = info.Age().Milliseconds()
	}
	_ = h.sink.Publish(ctx, observability.WSRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload: observability.WSEventPayload{
			Kind:       kind,
			ResourceID: resourceID,
			Event:      name,
			ConnID:     info.ConnID,
			DurationMS: duration,
			Reason:     reason,
			UserID:     info.UserID,
			DeviceID:   info.DeviceID,
			IP:         info.IP,
		},
	})
}

func addTo(rooms map[int64]map[*Client]bool, id int64, c *Client) {
	if _, ok := rooms[id]; !ok {
		rooms[id] = make(map[*Client]bool)
	}
	rooms[id][c] = true
}

func removeFrom(rooms map[int64]map[*Client]bool, id int64, c *Client) {
	if conns, ok := rooms[id]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(rooms, id)
		}
	}
}

func snapshot(room map[*Client]bool) []*Client {
	out := make([]*Client, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}
