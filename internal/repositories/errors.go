package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"match-service/internal/matching"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAlreadyBlocked       = errors.New("user already blocked")
	ErrNotBlocked           = errors.New("user is not blocked")
	ErrAlreadyReported      = errors.New("user already reported")
)

const matchPairIndex = "matches_pair_uniq"

// classifyMatchErr turns postgres serialization failures, deadlocks and a
// lost race on the pair index into matching.ErrConflictRace. A foreign key
// violation means a party was deleted mid-decision.
func classifyMatchErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "40001", "40P01":
		return fmt.Errorf("%s %s: %w", pqErr.Code, pqErr.Code.Name(), matching.ErrConflictRace)
	case "23505":
		if pqErr.Constraint == matchPairIndex {
			return fmt.Errorf("%s %s: %w", pqErr.Code, pqErr.Constraint, matching.ErrConflictRace)
		}
	case "23503":
		return &matching.Error{Kind: matching.KindInvalidActor, Msg: "target user not found", Err: err}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
