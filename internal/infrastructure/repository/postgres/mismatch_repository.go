package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
	qb "github.com/gridironlabs/roster-engine/internal/platform/querybuilder"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
)

type MismatchRepository struct {
	db    *sqlx.DB
	retry resilience.RetryConfig
}

type mismatchTableModel struct {
	ID         string    `db:"id"`
	PlayerName string    `db:"player_name"`
	RosterTeam string    `db:"roster_team"`
	OtherTeam  string    `db:"other_team"`
	SourceID   string    `db:"source_id"`
	RunID      string    `db:"run_id"`
	CreatedAt  time.Time `db:"created_at"`
}

var mismatchSelectColumns = []string{
	"id",
	"player_name",
	"roster_team",
	"other_team",
	"source_id",
	"run_id",
	"created_at",
}

func NewMismatchRepository(db *sqlx.DB, retry resilience.RetryConfig) *MismatchRepository {
	return &MismatchRepository{db: db, retry: retry}
}

// ReplaceAll regenerates the diagnostic table from this run's output.
func (r *MismatchRepository) ReplaceAll(ctx context.Context, records []mismatch.Record) error {
	return resilience.Retry(ctx, r.retry, isRetryable, func(ctx context.Context) error {
		return r.replaceAllOnce(ctx, records)
	})
}

func (r *MismatchRepository) replaceAllOnce(ctx context.Context, records []mismatch.Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mismatch replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom("roster_mismatches").ToSQL()
	if err != nil {
		return fmt.Errorf("build clear mismatches query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear mismatches: %w", err)
	}

	for _, record := range records {
		model := mismatchTableModel{
			ID:         record.ID,
			PlayerName: record.PlayerName,
			RosterTeam: record.RosterTeam,
			OtherTeam:  record.OtherTeam,
			SourceID:   record.SourceID,
			RunID:      record.RunID,
			CreatedAt:  record.CreatedAt,
		}
		query, args, err := qb.InsertModel("roster_mismatches", model, "")
		if err != nil {
			return fmt.Errorf("build insert mismatch query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert mismatch %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mismatch replace tx: %w", err)
	}
	return nil
}

func (r *MismatchRepository) ListAll(ctx context.Context) ([]mismatch.Record, error) {
	query, args, err := qb.Select(mismatchSelectColumns...).From("roster_mismatches").
		OrderBy("roster_team", "player_name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mismatches query: %w", err)
	}

	var rows []mismatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mismatches: %w", err)
	}

	out := make([]mismatch.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, mismatch.Record{
			ID:         row.ID,
			PlayerName: row.PlayerName,
			RosterTeam: row.RosterTeam,
			OtherTeam:  row.OtherTeam,
			SourceID:   row.SourceID,
			RunID:      row.RunID,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}
