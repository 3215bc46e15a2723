package matchingtest

import (
	"context"
	"sync"

	"match-service/internal/matching"
)

// Directory is a fixed set of users plus a block list.
type Directory struct {
	mu      sync.RWMutex
	users   map[int64]bool
	blocked map[[2]int64]bool
}

var _ matching.Directory = (*Directory)(nil)

func NewDirectory(userIDs ...int64) *Directory {
	d := &Directory{users: make(map[int64]bool), blocked: make(map[[2]int64]bool)}
	for _, id := range userIDs {
		d.users[id] = true
	}
	return d
}

// Block records that blocker blocked blocked.
func (d *Directory) Block(blocker, blocked int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blocked[[2]int64{blocker, blocked}] = true
}

func (d *Directory) UserExists(ctx context.Context, userID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[userID], nil
}

func (d *Directory) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.blocked[[2]int64{a, b}] || d.blocked[[2]int64{b, a}], nil
}
