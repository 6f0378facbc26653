package injury

import "context"

// Repository describes injury-table persistence needs from the pipeline.
// Matching and pruning each commit through a single bounded transaction so
// concurrent readers never see a half-applied update.
type Repository interface {
	ListAll(ctx context.Context) ([]Record, error)
	ListActive(ctx context.Context) ([]Record, error)
	// ApplyMatches writes matcher output (team, confidence, resolved key,
	// notes) for the given records in one transaction.
	ApplyMatches(ctx context.Context, records []Record) error
	// Deactivate clears IsActive for the given record IDs in one
	// transaction.
	Deactivate(ctx context.Context, ids []string) error
}
