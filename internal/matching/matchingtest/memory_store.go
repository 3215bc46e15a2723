// Package matchingtest provides in-memory collaborators for exercising the
// matching engine without a database or broker.
package matchingtest

import (
	"context"
	"fmt"
	"sync"

	"match-service/internal/matching"
	"match-service/internal/models"
)

// MemoryStore keeps pair records in a map. Transactions are serialized and
// staged writes are applied only when the callback succeeds.
type MemoryStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	records  map[int64]models.Match
	nextID   int64
	failNext int
	commits  int
}

var _ matching.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]models.Match)}
}

// FailNext makes the next n transactions fail with a conflict before running.
func (s *MemoryStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Seed stores m as-is, assigning an ID when it has none.
func (s *MemoryStore) Seed(m models.Match) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.nextID++
		m.ID = s.nextID
	}
	s.records[m.ID] = m
	return m
}

// Find returns the stored record for the pair, if any.
func (s *MemoryStore) Find(a, b int64) (models.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findLocked(a, b)
	if m == nil {
		return models.Match{}, false
	}
	return *m, true
}

// Len counts stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Commits counts successful transactions.
func (s *MemoryStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx matching.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.failNext > 0 {
		s.failNext--
		s.mu.Unlock()
		return fmt.Errorf("could not serialize access: %w", matching.ErrConflictRace)
	}
	s.mu.Unlock()

	tx := &memoryTx{store: s, staged: make(map[int64]models.Match)}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range tx.staged {
		s.records[id] = m
	}
	s.commits++
	return nil
}

func (s *MemoryStore) findLocked(a, b int64) *models.Match {
	for _, m := range s.records {
		if (m.User1ID == a && m.User2ID == b) || (m.User1ID == b && m.User2ID == a) {
			found := m
			return &found
		}
	}
	return nil
}

type memoryTx struct {
	store  *MemoryStore
	staged map[int64]models.Match
}

func (t *memoryTx) LockPair(ctx context.Context, a, b int64) error {
	return ctx.Err()
}

func (t *memoryTx) FindByPair(ctx context.Context, a, b int64) (*models.Match, error) {
	for _, m := range t.staged {
		if (m.User1ID == a && m.User2ID == b) || (m.User1ID == b && m.User2ID == a) {
			found := m
			return &found, nil
		}
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.findLocked(a, b), nil
}

func (t *memoryTx) Insert(ctx context.Context, m models.Match) (models.Match, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.findLocked(m.User1ID, m.User2ID) != nil {
		return models.Match{}, fmt.Errorf("duplicate pair: %w", matching.ErrConflictRace)
	}
	t.store.nextID++
	m.ID = t.store.nextID
	t.staged[m.ID] = m
	return m, nil
}

func (t *memoryTx) Update(ctx context.Context, m models.Match) error {
	t.store.mu.Lock()
	_, ok := t.store.records[m.ID]
	t.store.mu.Unlock()
	if !ok {
		if _, staged := t.staged[m.ID]; !staged {
			return fmt.Errorf("match %d not found", m.ID)
		}
	}
	t.staged[m.ID] = m
	return nil
}
