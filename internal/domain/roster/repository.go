package roster

import "context"

// Repository describes roster persistence needs from the pipeline stages.
type Repository interface {
	// ReplaceAll swaps the entire roster table for the given entries in one
	// transaction. Readers never observe a half-applied roster.
	ReplaceAll(ctx context.Context, entries []Entry) error
	ListEntries(ctx context.Context) ([]Entry, error)
}
