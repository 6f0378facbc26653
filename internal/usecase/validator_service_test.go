package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

func TestValidateFlagsTeamMismatch(t *testing.T) {
	service := NewValidatorService(logging.NewNop())

	records := []injury.Record{
		{
			ID:                "inj-1",
			PlayerName:        "Stefon Diggs",
			Team:              "HOU",
			ResolvedPlayerKey: "stefon diggs",
			Designation:       injury.DesignationQuestionable,
			IsActive:          true,
			LastUpdated:       time.Now(),
		},
		{
			ID:          "inj-2",
			PlayerName:  "Unknown Guy",
			Team:        "KC",
			Designation: injury.DesignationOut,
			IsActive:    true,
			LastUpdated: time.Now(),
		},
	}

	result, err := service.Validate(context.Background(), records, testRoster(), nil)
	require.NoError(t, err)
	require.Len(t, result.Details, 2)

	require.True(t, result.Details[0].TeamMismatch)
	require.Equal(t, "BUF", result.Details[0].RosterTeam)
	require.Equal(t, "HOU", result.Details[0].InjuryTeam)

	require.False(t, result.Details[1].TeamMismatch)
	require.True(t, result.Details[1].MissingRoster)
}

func TestValidateTeamSummaryCounts(t *testing.T) {
	service := NewValidatorService(logging.NewNop())
	now := time.Now()

	records := []injury.Record{
		{ID: "inj-1", PlayerName: "A", Team: "KC", Designation: injury.DesignationOut, IsActive: true, LastUpdated: now},
		{ID: "inj-2", PlayerName: "B", Team: "KC", Designation: injury.DesignationDoubtful, IsActive: true, LastUpdated: now},
		{ID: "inj-3", PlayerName: "C", Team: "KC", Designation: injury.DesignationQuestionable, IsActive: true, LastUpdated: now},
		{ID: "inj-4", PlayerName: "D", Team: "KC", Designation: injury.DesignationQuestionable, IsActive: false, LastUpdated: now},
		{ID: "inj-5", PlayerName: "E", Team: "BUF", Designation: injury.DesignationIR, IsActive: true, LastUpdated: now},
	}
	mismatches := []mismatch.Record{
		{ID: "mm-1", PlayerName: "B", RosterTeam: "KC", OtherTeam: "LV", SourceID: "espn", RunID: "run-1"},
	}

	result, err := service.Validate(context.Background(), records, nil, mismatches)
	require.NoError(t, err)
	require.Len(t, result.Summaries, 2)

	require.Equal(t, "BUF", result.Summaries[0].TeamCode)
	require.Equal(t, 1, result.Summaries[0].OutCount)

	kc := result.Summaries[1]
	require.Equal(t, "KC", kc.TeamCode)
	require.Equal(t, 1, kc.OutCount)
	require.Equal(t, 1, kc.DoubtfulCount)
	require.Equal(t, 1, kc.QuestionableCount, "inactive records stay out of the summary")
	require.Equal(t, 1, kc.MismatchCount)
}

func TestValidateOwnsNoState(t *testing.T) {
	service := NewValidatorService(logging.NewNop())
	records := []injury.Record{
		{ID: "inj-1", PlayerName: "A", Team: "KC", Designation: injury.DesignationOut, IsActive: true, LastUpdated: time.Now()},
	}

	before := records[0]
	_, err := service.Validate(context.Background(), records, testRoster(), nil)
	require.NoError(t, err)
	require.Equal(t, before, records[0], "validator must not mutate its inputs")
}
