package models

import "time"

// MatchStatus is the overall state of a pairwise match record.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusDislike1 MatchStatus = "dislike1"
	MatchStatusDislike2 MatchStatus = "dislike2"
	// MatchStatusUnmatched is only ever read from legacy rows. It is terminal.
	MatchStatusUnmatched MatchStatus = "unmatched"
)

// Valid reports whether s is part of the status vocabulary.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusDislike1, MatchStatusDislike2, MatchStatusUnmatched:
		return true
	}
	return false
}

// Decision is a single user's swipe.
type Decision string

const (
	DecisionNone    Decision = ""
	DecisionLike    Decision = "like"
	DecisionDislike Decision = "dislike"
)

// Valid reports whether d is a decision a user can submit.
func (d Decision) Valid() bool {
	return d == DecisionLike || d == DecisionDislike
}

// Match is the single record kept for an unordered pair of users. Slot 1 is
// whoever swiped first.
type Match struct {
	ID            int64       `db:"id" json:"id"`
	User1ID       int64       `db:"user1_id" json:"user1_id"`
	User2ID       int64       `db:"user2_id" json:"user2_id"`
	User1Swiped   bool        `db:"user1_swiped" json:"user1_swiped"`
	User2Swiped   bool        `db:"user2_swiped" json:"user2_swiped"`
	User1Decision Decision    `db:"user1_decision" json:"user1_decision,omitempty"`
	User2Decision Decision    `db:"user2_decision" json:"user2_decision,omitempty"`
	Status        MatchStatus `db:"status" json:"status"`
	SwipedAt      time.Time   `db:"swiped_at" json:"swiped_at"`
	MatchedAt     *time.Time  `db:"matched_at" json:"matched_at,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// Slot returns 1 or 2 for a participant and 0 for anyone else.
func (m Match) Slot(userID int64) int {
	switch userID {
	case m.User1ID:
		return 1
	case m.User2ID:
		return 2
	}
	return 0
}

// Counterpart returns the other participant.
func (m Match) Counterpart(userID int64) int64 {
	if userID == m.User1ID {
		return m.User2ID
	}
	return m.User1ID
}

// HasParticipant reports whether userID occupies either slot.
func (m Match) HasParticipant(userID int64) bool {
	return m.Slot(userID) != 0
}

// MatchSummary is a match as seen by one participant.
type MatchSummary struct {
	MatchID   int64       `db:"id" json:"match_id"`
	UserID    int64       `db:"user_id" json:"user_id"`
	Username  string      `db:"username" json:"username"`
	City      string      `db:"city" json:"city,omitempty"`
	PhotoURL  string      `db:"photo_url" json:"photo_url,omitempty"`
	Status    MatchStatus `db:"status" json:"status"`
	SwipedAt  time.Time   `db:"swiped_at" json:"swiped_at"`
	MatchedAt *time.Time  `db:"matched_at" json:"matched_at,omitempty"`
}

// CanonicalPair orders two user IDs so the smaller comes first.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
