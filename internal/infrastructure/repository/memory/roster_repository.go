package memory

import (
	"context"
	"sync"

	"github.com/gridironlabs/roster-engine/internal/domain/roster"
)

// RosterRepository is an in-memory roster store for tests and local runs.
type RosterRepository struct {
	mu      sync.RWMutex
	entries []roster.Entry
}

func NewRosterRepository() *RosterRepository {
	return &RosterRepository{}
}

func (r *RosterRepository) ReplaceAll(_ context.Context, entries []roster.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]roster.Entry(nil), entries...)
	return nil
}

func (r *RosterRepository) ListEntries(_ context.Context) ([]roster.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]roster.Entry(nil), r.entries...), nil
}
