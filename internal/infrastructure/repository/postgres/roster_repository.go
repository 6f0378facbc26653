package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlabs/roster-engine/internal/domain/roster"
	qb "github.com/gridironlabs/roster-engine/internal/platform/querybuilder"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
)

type RosterRepository struct {
	db    *sqlx.DB
	retry resilience.RetryConfig
}

var rosterSelectColumns = []string{
	"id",
	"team_code",
	"canonical_key",
	"display_name",
	"position",
	"status",
	"winning_source_id",
	"source_priority_used",
	"source_ids",
	"rank_score",
	"injury_override",
	"updated_at",
}

func NewRosterRepository(db *sqlx.DB, retry resilience.RetryConfig) *RosterRepository {
	return &RosterRepository{db: db, retry: retry}
}

// ReplaceAll swaps the full roster in one transaction. Dashboard readers see
// either the previous roster or the new one, never a mix.
func (r *RosterRepository) ReplaceAll(ctx context.Context, entries []roster.Entry) error {
	return resilience.Retry(ctx, r.retry, isRetryable, func(ctx context.Context) error {
		return r.replaceAllOnce(ctx, entries)
	})
}

func (r *RosterRepository) replaceAllOnce(ctx context.Context, entries []roster.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom("roster_players").ToSQL()
	if err != nil {
		return fmt.Errorf("build clear roster query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}

	now := time.Now().UTC()
	for _, entry := range entries {
		model := rosterInsertModel{
			TeamCode:        entry.TeamCode,
			CanonicalKey:    entry.Player.CanonicalKey,
			DisplayName:     entry.Player.DisplayName,
			Position:        entry.Player.Position,
			Status:          entry.Player.Status,
			WinningSourceID: entry.Player.WinningSourceID,
			SourcePriority:  entry.Player.SourcePriorityUsed,
			SourceIDs:       entry.Player.SourceIDs,
			RankScore:       entry.RankScore,
			InjuryOverride:  entry.InjuryOverride,
			UpdatedAt:       now,
		}
		query, args, err := qb.InsertModel("roster_players", model, "")
		if err != nil {
			return fmt.Errorf("build insert roster entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert roster entry %s/%s: %w", entry.TeamCode, entry.Player.CanonicalKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster replace tx: %w", err)
	}
	return nil
}

func (r *RosterRepository) ListEntries(ctx context.Context) ([]roster.Entry, error) {
	query, args, err := qb.Select(rosterSelectColumns...).From("roster_players").
		OrderBy("team_code", "canonical_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list roster query: %w", err)
	}

	var rows []rosterTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list roster entries: %w", err)
	}

	out := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
