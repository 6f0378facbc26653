package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	qb "github.com/gridironlabs/roster-engine/internal/platform/querybuilder"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
)

type InjuryRepository struct {
	db    *sqlx.DB
	retry resilience.RetryConfig
}

var injurySelectColumns = []string{
	"id",
	"player_name",
	"team",
	"position",
	"designation",
	"severity_tier",
	"confidence_score",
	"resolved_player_key",
	"is_active",
	"last_updated",
	"source_id",
	"notes",
}

func NewInjuryRepository(db *sqlx.DB, retry resilience.RetryConfig) *InjuryRepository {
	return &InjuryRepository{db: db, retry: retry}
}

func (r *InjuryRepository) ListAll(ctx context.Context) ([]injury.Record, error) {
	return r.list(ctx)
}

func (r *InjuryRepository) ListActive(ctx context.Context) ([]injury.Record, error) {
	return r.list(ctx, qb.Eq("is_active", true))
}

func (r *InjuryRepository) list(ctx context.Context, conditions ...qb.Condition) ([]injury.Record, error) {
	builder := qb.Select(injurySelectColumns...).From("injuries").OrderBy("id")
	if len(conditions) > 0 {
		builder = builder.Where(conditions...)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list injuries query: %w", err)
	}

	var rows []injuryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list injuries: %w", err)
	}

	out := make([]injury.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ApplyMatches writes matcher output for every record in one transaction.
func (r *InjuryRepository) ApplyMatches(ctx context.Context, records []injury.Record) error {
	if len(records) == 0 {
		return nil
	}
	return resilience.Retry(ctx, r.retry, isRetryable, func(ctx context.Context) error {
		return r.applyMatchesOnce(ctx, records)
	})
}

func (r *InjuryRepository) applyMatchesOnce(ctx context.Context, records []injury.Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin injury match tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, record := range records {
		query, args, err := qb.Update("injuries").
			Set("team", record.Team).
			Set("confidence_score", record.ConfidenceScore).
			Set("resolved_player_key", nullableString(record.ResolvedPlayerKey)).
			Set("notes", record.Notes).
			Where(qb.Eq("id", record.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update injury match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update injury match %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit injury match tx: %w", err)
	}
	return nil
}

// Deactivate clears is_active for the given ids in one transaction.
func (r *InjuryRepository) Deactivate(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return resilience.Retry(ctx, r.retry, isRetryable, func(ctx context.Context) error {
		return r.deactivateOnce(ctx, ids)
	})
}

func (r *InjuryRepository) deactivateOnce(ctx context.Context, ids []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin injury deactivate tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("injuries").
		Set("is_active", false).
		Where(qb.In("id", stringSliceToAny(ids))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate injuries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deactivate injuries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit injury deactivate tx: %w", err)
	}
	return nil
}

func stringSliceToAny(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
