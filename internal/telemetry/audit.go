package telemetry

import (
	"context"
	"log"
	"strconv"
	"time"
)

const auditSchemaVersion = 1

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEmitter publishes audit_log envelopes for security relevant actions.
// A nil emitter is valid and drops everything.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level      Level             `json:"level"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type Attr struct {
	Key   string
	Value string
}

func Int64Attr(key string, v int64) Attr {
	return Attr{Key: key, Value: strconv.FormatInt(v, 10)}
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, level Level, text, requestID string, userID *string, attrs ...Attr) {
	if e == nil || e.publisher == nil {
		return
	}

	var who string
	if userID != nil {
		who = *userID
	}
	log.Printf("audit emit: level=%s request_id=%s user_id=%s text=%q", level, requestID, who, text)

	payload := AuditPayload{Level: level, Text: text}
	if len(attrs) > 0 {
		payload.Attributes = make(map[string]string, len(attrs))
		for _, a := range attrs {
			payload.Attributes[a.Key] = a.Value
		}
	}

	envelope := AuditEnvelope{
		SchemaVersion: auditSchemaVersion,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: routing_key=%s err=%v", e.routingKey, err)
	}
}
