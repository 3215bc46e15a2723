package matching

import "fmt"

// Kind classifies a rejected decision.
type Kind string

const (
	KindInvalidActor           Kind = "invalid_actor"
	KindInvalidDecision        Kind = "invalid_decision"
	KindForbidden              Kind = "forbidden"
	KindInvalidStateTransition Kind = "invalid_state_transition"
	KindConflictRace           Kind = "conflict_race"
)

// Error is returned for every rejected operation. Compare with errors.Is
// against the sentinel values below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

var (
	ErrInvalidActor           = &Error{Kind: KindInvalidActor}
	ErrInvalidDecision        = &Error{Kind: KindInvalidDecision}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrConflictRace           = &Error{Kind: KindConflictRace}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target carries no message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg != "" && t.Msg != e.Msg {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
