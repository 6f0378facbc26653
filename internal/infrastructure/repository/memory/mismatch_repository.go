package memory

import (
	"context"
	"sync"

	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
)

// MismatchRepository is an in-memory diagnostic store for tests and local
// runs.
type MismatchRepository struct {
	mu      sync.RWMutex
	records []mismatch.Record
}

func NewMismatchRepository() *MismatchRepository {
	return &MismatchRepository{}
}

func (r *MismatchRepository) ReplaceAll(_ context.Context, records []mismatch.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append([]mismatch.Record(nil), records...)
	return nil
}

func (r *MismatchRepository) ListAll(_ context.Context) ([]mismatch.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]mismatch.Record(nil), r.records...), nil
}
