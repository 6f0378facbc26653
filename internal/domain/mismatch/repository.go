package mismatch

import "context"

// Repository persists the regenerable mismatch diagnostics.
type Repository interface {
	// ReplaceAll drops the previous run's records and writes the new set in
	// one transaction.
	ReplaceAll(ctx context.Context, records []Record) error
	ListAll(ctx context.Context) ([]Record, error)
}
