package matching

import (
	"time"

	"match-service/internal/models"
)

// Mode selects which entry point is driving a transition.
type Mode int

const (
	ModeSwipe Mode = iota
	ModeRecovery
)

func (m Mode) String() string {
	if m == ModeRecovery {
		return "recovery"
	}
	return "swipe"
}

// Outcome is the result of applying one decision to a pair record.
type Outcome struct {
	Match models.Match
	// Created is set when no record existed and Match must be inserted.
	Created bool
	// Write is false when nothing needs persisting.
	Write bool
	// Duplicate marks a decision that repeats the actor's last one.
	Duplicate  bool
	IsNewMatch bool
	Previous   models.MatchStatus
}

// Apply computes the next state of the pair record. current is nil when the
// pair has no record yet. It never touches storage.
func Apply(current *models.Match, actorID, targetID int64, decision models.Decision, mode Mode, now time.Time) (Outcome, error) {
	if current == nil {
		m := models.Match{
			User1ID:       actorID,
			User2ID:       targetID,
			User1Swiped:   true,
			User1Decision: decision,
			Status:        models.MatchStatusPending,
			SwipedAt:      now,
			CreatedAt:     now,
		}
		if decision == models.DecisionDislike {
			m.Status = models.MatchStatusDislike1
		}
		return Outcome{Match: m, Created: true, Write: true}, nil
	}

	m := *current
	out := Outcome{Match: m, Previous: m.Status}

	slot := m.Slot(actorID)
	if slot == 0 || m.Counterpart(actorID) != targetID {
		return out, newError(KindInvalidActor, "actor is not a participant of this match")
	}

	switch m.Status {
	case models.MatchStatusAccepted:
		return out, nil
	case models.MatchStatusUnmatched:
		return out, newError(KindInvalidStateTransition, "match is closed")
	}

	own := slotDecision(m, slot)
	other := slotDecision(m, 3-slot)

	if mode == ModeRecovery && own != models.DecisionDislike {
		return out, newError(KindInvalidStateTransition, "match is not in a disliked state")
	}

	m.SwipedAt = now
	out.Write = true

	if own == decision && slotSwiped(m, slot) {
		setSlot(&m, slot, decision)
		out.Duplicate = true
		out.Match = m
		return out, nil
	}

	setSlot(&m, slot, decision)

	switch {
	case decision == models.DecisionDislike:
		m.Status = dislikeStatus(slot)
	case other == models.DecisionLike:
		m.Status = models.MatchStatusAccepted
		matchedAt := now
		m.MatchedAt = &matchedAt
		out.IsNewMatch = true
	case other == models.DecisionDislike:
		m.Status = dislikeStatus(3 - slot)
	default:
		m.Status = models.MatchStatusPending
	}

	out.Match = m
	return out, nil
}

// slotDecision returns the slot's last decision, inferring it from the status
// for rows written before per-slot decisions were stored.
func slotDecision(m models.Match, slot int) models.Decision {
	d, swiped := m.User1Decision, m.User1Swiped
	if slot == 2 {
		d, swiped = m.User2Decision, m.User2Swiped
	}
	if d != models.DecisionNone || !swiped {
		return d
	}
	switch m.Status {
	case dislikeStatus(slot):
		return models.DecisionDislike
	case models.MatchStatusPending, models.MatchStatusAccepted, dislikeStatus(3 - slot):
		return models.DecisionLike
	}
	return models.DecisionNone
}

func slotSwiped(m models.Match, slot int) bool {
	if slot == 1 {
		return m.User1Swiped
	}
	return m.User2Swiped
}

func setSlot(m *models.Match, slot int, d models.Decision) {
	if slot == 1 {
		m.User1Swiped = true
		m.User1Decision = d
		return
	}
	m.User2Swiped = true
	m.User2Decision = d
}

func dislikeStatus(slot int) models.MatchStatus {
	if slot == 1 {
		return models.MatchStatusDislike1
	}
	return models.MatchStatusDislike2
}
