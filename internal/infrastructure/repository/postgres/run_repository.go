package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridironlabs/roster-engine/internal/domain/report"
	qb "github.com/gridironlabs/roster-engine/internal/platform/querybuilder"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
)

type RunRepository struct {
	db    *sqlx.DB
	retry resilience.RetryConfig
}

type runInsertModel struct {
	RunID               string    `db:"run_id"`
	StartedAt           time.Time `db:"started_at"`
	FinishedAt          time.Time `db:"finished_at"`
	IdentitiesResolved  int       `db:"identities_resolved"`
	RosterEntriesKept   int       `db:"roster_entries_kept"`
	MatchedTotal        int       `db:"matched_total"`
	Unresolved          int       `db:"unresolved"`
	MismatchesEmitted   int       `db:"mismatches_emitted"`
	InjuriesDeactivated int       `db:"injuries_deactivated"`
	Payload             []byte    `db:"payload"`
}

func NewRunRepository(db *sqlx.DB, retry resilience.RetryConfig) *RunRepository {
	return &RunRepository{db: db, retry: retry}
}

func (r *RunRepository) Insert(ctx context.Context, run report.Run, payload []byte) error {
	model := runInsertModel{
		RunID:               run.RunID,
		StartedAt:           run.StartedAt,
		FinishedAt:          run.FinishedAt,
		IdentitiesResolved:  run.IdentitiesResolved,
		RosterEntriesKept:   run.RosterEntriesKept,
		MatchedTotal:        run.MatchedExact + run.MatchedVariant + run.MatchedFuzzy,
		Unresolved:          run.Unresolved,
		MismatchesEmitted:   run.MismatchesEmitted,
		InjuriesDeactivated: run.InjuriesDeactivated,
		Payload:             payload,
	}

	query, args, err := qb.InsertModel("pipeline_runs", model, "")
	if err != nil {
		return fmt.Errorf("build insert pipeline run query: %w", err)
	}

	return resilience.Retry(ctx, r.retry, isRetryable, func(ctx context.Context) error {
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert pipeline run %s: %w", run.RunID, err)
		}
		return nil
	})
}
