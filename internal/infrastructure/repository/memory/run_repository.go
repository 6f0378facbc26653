package memory

import (
	"context"
	"sync"

	"github.com/gridironlabs/roster-engine/internal/domain/report"
)

type storedRun struct {
	Run     report.Run
	Payload []byte
}

// RunRepository is an in-memory run-report store for tests and local runs.
type RunRepository struct {
	mu   sync.RWMutex
	runs []storedRun
}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

func (r *RunRepository) Insert(_ context.Context, run report.Run, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, storedRun{Run: run, Payload: append([]byte(nil), payload...)})
	return nil
}

func (r *RunRepository) Runs() []report.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]report.Run, 0, len(r.runs))
	for _, stored := range r.runs {
		out = append(out, stored.Run)
	}
	return out
}
