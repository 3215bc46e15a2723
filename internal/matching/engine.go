package matching

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"match-service/internal/models"
	"match-service/internal/observability"
)

const (
	defaultMaxAttempts   = 3
	defaultNotifyTimeout = 5 * time.Second
)

// Store runs a unit of work against the pair record table.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the store available inside a transaction.
type Tx interface {
	// LockPair serializes every transaction touching the unordered pair.
	LockPair(ctx context.Context, a, b int64) error
	// FindByPair returns the record for the pair in either slot order.
	FindByPair(ctx context.Context, a, b int64) (*models.Match, error)
	Insert(ctx context.Context, m models.Match) (models.Match, error)
	Update(ctx context.Context, m models.Match) error
}

// Directory answers identity questions about the two parties.
type Directory interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	IsBlocked(ctx context.Context, a, b int64) (bool, error)
}

// Notifier delivers an event to one user's private channel.
type Notifier interface {
	Publish(ctx context.Context, userID int64, eventType models.EventType, payload any) error
}

// DecisionInput is one swipe. ActorID comes from the verified token.
type DecisionInput struct {
	ActorID  int64
	TargetID int64
	Decision models.Decision
}

// Result is what the caller sees after a decision commits. IsNewMatch is
// true only on the call that moved the pair into accepted.
type Result struct {
	Status     models.MatchStatus `json:"status"`
	IsNewMatch bool               `json:"is_new_match"`
	Match      models.Match       `json:"match"`
}

// EventPayload is the body of every fan-out event raised by the engine.
type EventPayload struct {
	MatchID    int64              `json:"match_id"`
	FromUserID int64              `json:"from_user_id"`
	Status     models.MatchStatus `json:"status"`
	MatchedAt  *time.Time         `json:"matched_at,omitempty"`
}

// Service is the inbound surface used by the HTTP layer.
type Service interface {
	RecordDecision(ctx context.Context, in DecisionInput) (Result, error)
	LikeAfterDislike(ctx context.Context, actorID, targetID int64) (Result, error)
}

var _ Service = (*Engine)(nil)

// Engine reconciles swipes from both parties into a single pair record.
type Engine struct {
	store         Store
	directory     Directory
	notifier      Notifier
	now           func() time.Time
	maxAttempts   int
	notifyTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxAttempts bounds how often a conflicting transaction is re-run.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithNotifyTimeout bounds how long post-commit fan-out may run.
func WithNotifyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.notifyTimeout = d
		}
	}
}

// NewEngine wires an Engine. notifier may be nil, in which case no events are sent.
func NewEngine(store Store, directory Directory, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		directory:     directory,
		notifier:      notifier,
		now:           func() time.Time { return time.Now().UTC() },
		maxAttempts:   defaultMaxAttempts,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordDecision applies a like or dislike from actor to target.
func (e *Engine) RecordDecision(ctx context.Context, in DecisionInput) (Result, error) {
	if !in.Decision.Valid() {
		return Result{}, newError(KindInvalidDecision, fmt.Sprintf("unknown decision %q", in.Decision))
	}
	return e.run(ctx, in, ModeSwipe)
}

// LikeAfterDislike lets an actor who declined the target take it back.
func (e *Engine) LikeAfterDislike(ctx context.Context, actorID, targetID int64) (Result, error) {
	return e.run(ctx, DecisionInput{ActorID: actorID, TargetID: targetID, Decision: models.DecisionLike}, ModeRecovery)
}

func (e *Engine) run(ctx context.Context, in DecisionInput, mode Mode) (Result, error) {
	ctx, span := otel.Tracer("match-service/matching").Start(ctx, "matching.decision")
	defer span.End()
	start := time.Now()
	defer func() { observability.ObserveMatchDecision(mode.String(), time.Since(start)) }()
	span.SetAttributes(
		attribute.Int64("match.actor_id", in.ActorID),
		attribute.Int64("match.target_id", in.TargetID),
		attribute.String("match.decision", string(in.Decision)),
		attribute.Bool("match.recovery", mode == ModeRecovery),
	)

	result, err := e.execute(ctx, in, mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var merr *Error
		if errors.As(err, &merr) {
			observability.IncMatchDecision(string(in.Decision), string(merr.Kind))
		} else {
			observability.IncMatchDecision(string(in.Decision), "error")
		}
		return Result{}, err
	}
	span.SetAttributes(attribute.String("match.status", string(result.Status)), attribute.Bool("match.new", result.IsNewMatch))
	observability.IncMatchDecision(string(in.Decision), string(result.Status))
	return result, nil
}

func (e *Engine) execute(ctx context.Context, in DecisionInput, mode Mode) (Result, error) {
	if in.ActorID <= 0 {
		return Result{}, newError(KindInvalidActor, "missing actor")
	}
	if in.ActorID == in.TargetID {
		return Result{}, newError(KindInvalidActor, "cannot match with yourself")
	}
	if err := e.checkParties(ctx, in.ActorID, in.TargetID); err != nil {
		return Result{}, err
	}

	var (
		out     Outcome
		lastErr error
	)
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		out, lastErr = e.attempt(ctx, in, mode)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, ErrConflictRace) {
			return Result{}, lastErr
		}
		observability.IncMatchConflict()
		log.Printf("match decision conflict actor=%d target=%d attempt=%d: %v", in.ActorID, in.TargetID, attempt, lastErr)
	}
	if lastErr != nil {
		return Result{}, &Error{Kind: KindConflictRace, Msg: "concurrent update, try again", Err: lastErr}
	}

	e.notify(ctx, in.ActorID, out)

	return Result{Status: out.Match.Status, IsNewMatch: out.IsNewMatch, Match: out.Match}, nil
}

func (e *Engine) checkParties(ctx context.Context, actorID, targetID int64) error {
	if e.directory == nil {
		return nil
	}
	exists, err := e.directory.UserExists(ctx, targetID)
	if err != nil {
		return fmt.Errorf("lookup target: %w", err)
	}
	if !exists {
		return newError(KindInvalidActor, "target user not found")
	}
	blocked, err := e.directory.IsBlocked(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("lookup block: %w", err)
	}
	if blocked {
		return newError(KindForbidden, "user is blocked")
	}
	return nil
}

// attempt is one full lookup-compute-persist pass.
func (e *Engine) attempt(ctx context.Context, in DecisionInput, mode Mode) (Outcome, error) {
	var out Outcome
	err := e.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockPair(ctx, in.ActorID, in.TargetID); err != nil {
			return err
		}
		current, err := tx.FindByPair(ctx, in.ActorID, in.TargetID)
		if err != nil {
			return err
		}

		out, err = Apply(current, in.ActorID, in.TargetID, in.Decision, mode, e.now())
		if err != nil {
			return err
		}

		switch {
		case out.Created:
			inserted, err := tx.Insert(ctx, out.Match)
			if err != nil {
				return err
			}
			out.Match = inserted
		case out.Write:
			if err := tx.Update(ctx, out.Match); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// notify runs dispatch after commit under its own deadline. The caller waits
// for it only while its own context is live; fan-out keeps going after that.
func (e *Engine) notify(ctx context.Context, actorID int64, out Outcome) {
	if e.notifier == nil || out.Duplicate || !out.Write {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		e.dispatch(dctx, actorID, out)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("match notify detached actor=%d match_id=%d: %v", actorID, out.Match.ID, ctx.Err())
	}
}

// dispatch publishes the events for out. Failures are logged and never undo
// the decision.
func (e *Engine) dispatch(ctx context.Context, actorID int64, out Outcome) {
	m := out.Match
	targetID := m.Counterpart(actorID)

	if out.IsNewMatch {
		for _, eventType := range []models.EventType{models.EventNewMatch, models.EventNewConnection} {
			e.publish(ctx, actorID, eventType, EventPayload{MatchID: m.ID, FromUserID: targetID, Status: m.Status, MatchedAt: m.MatchedAt})
			e.publish(ctx, targetID, eventType, EventPayload{MatchID: m.ID, FromUserID: actorID, Status: m.Status, MatchedAt: m.MatchedAt})
		}
		return
	}

	if m.Status == models.MatchStatusPending && (out.Created || out.Previous != models.MatchStatusPending) {
		e.publish(ctx, targetID, models.EventLikedYou, EventPayload{MatchID: m.ID, FromUserID: actorID, Status: m.Status})
	}
}

func (e *Engine) publish(ctx context.Context, userID int64, eventType models.EventType, payload EventPayload) {
	if err := e.notifier.Publish(ctx, userID, eventType, payload); err != nil {
		observability.IncNotifyPublishError(string(eventType))
		log.Printf("match notify failed user_id=%d event=%s match_id=%d: %v", userID, eventType, payload.MatchID, err)
	}
}
