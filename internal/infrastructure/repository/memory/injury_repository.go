package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
)

// InjuryRepository is an in-memory injury store for tests and local runs.
type InjuryRepository struct {
	mu      sync.RWMutex
	records map[string]injury.Record
}

func NewInjuryRepository() *InjuryRepository {
	return &InjuryRepository{records: make(map[string]injury.Record)}
}

// Seed overwrites the stored record set, standing in for the out-of-scope
// injury harvester.
func (r *InjuryRepository) Seed(records []injury.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]injury.Record, len(records))
	for _, record := range records {
		r.records[record.ID] = record
	}
}

func (r *InjuryRepository) ListAll(_ context.Context) ([]injury.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(injury.Record) bool { return true }), nil
}

func (r *InjuryRepository) ListActive(_ context.Context) ([]injury.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(record injury.Record) bool { return record.IsActive }), nil
}

func (r *InjuryRepository) ApplyMatches(_ context.Context, records []injury.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records {
		stored, ok := r.records[record.ID]
		if !ok {
			continue
		}
		stored.Team = record.Team
		stored.ConfidenceScore = record.ConfidenceScore
		stored.ResolvedPlayerKey = record.ResolvedPlayerKey
		stored.Notes = record.Notes
		r.records[record.ID] = stored
	}
	return nil
}

func (r *InjuryRepository) Deactivate(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if stored, ok := r.records[id]; ok {
			stored.IsActive = false
			r.records[id] = stored
		}
	}
	return nil
}

func (r *InjuryRepository) snapshot(keep func(injury.Record) bool) []injury.Record {
	out := make([]injury.Record, 0, len(r.records))
	for _, record := range r.records {
		if keep(record) {
			out = append(out, record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
