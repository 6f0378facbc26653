package report

import (
	"context"
	"time"
)

// Run is the primary user-visible output of one pipeline run: a summary of
// what was harvested, resolved, capped, matched and pruned. It is logged,
// rendered to JSON and stored alongside the run row.
type Run struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ObservationsBySource map[string]int `json:"observations_by_source"`
	SourcesFailed        []string       `json:"sources_failed,omitempty"`
	MalformedDropped     int            `json:"malformed_dropped"`
	NonPlayerDropped     int            `json:"non_player_dropped"`
	ActivityRows         int            `json:"activity_rows"`

	IdentitiesResolved int `json:"identities_resolved"`
	GroupsMerged       int `json:"groups_merged"`

	RosterEntriesKept int `json:"roster_entries_kept"`
	CappedOut         int `json:"capped_out"`

	MatchedExact      int `json:"matched_exact"`
	MatchedVariant    int `json:"matched_variant"`
	MatchedFuzzy      int `json:"matched_fuzzy"`
	Unresolved        int `json:"unresolved"`
	TeamCorrections   int `json:"team_corrections"`
	MismatchesEmitted int `json:"mismatches_emitted"`

	DuplicatesCollapsed int `json:"duplicates_collapsed"`
	InjuriesDeactivated int `json:"injuries_deactivated"`
}

// Repository persists run summaries.
type Repository interface {
	Insert(ctx context.Context, run Run, payload []byte) error
}
