package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/infrastructure/repository/memory"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

func newTestPipeline(t *testing.T, sources []ObservationSource, injuryRepo *memory.InjuryRepository) (*PipelineService, *memory.RosterRepository, *memory.MismatchRepository, *memory.RunRepository) {
	t.Helper()

	rosterRepo := memory.NewRosterRepository()
	mismatchRepo := memory.NewMismatchRepository()
	runRepo := memory.NewRunRepository()
	logger := logging.NewNop()

	service, err := NewPipelineService(PipelineDeps{
		Harvester: NewHarvestService(harvestTestConfig(), sources, nil, logger),
		Merger:    NewMergeService(mergeTestConfig(), logger),
		Capper:    NewCapperService(capperTestConfig(53), logger),
		Matcher: NewMatchService(MatcherConfig{
			FuzzyThreshold:      0.88,
			ReliableTeamSources: map[string]struct{}{"espn": {}, "sleeper": {}},
		}, nil, logger),
		Pruner:       NewPruneService(PrunerConfig{StalenessDays: 10}, logger),
		Validator:    NewValidatorService(logger),
		RosterRepo:   rosterRepo,
		InjuryRepo:   injuryRepo,
		MismatchRepo: mismatchRepo,
		RunRepo:      runRepo,
		Logger:       logger,
	})
	require.NoError(t, err)
	return service, rosterRepo, mismatchRepo, runRepo
}

func TestPipelineEndToEnd(t *testing.T) {
	observed := time.Now().UTC()
	sources := []ObservationSource{
		stubRosterSource{id: "espn", rows: []observation.Raw{
			{RawName: "Patrick Mahomes", TeamCode: "KC", Position: "QB", SourceID: "espn", ObservedAt: observed},
			{RawName: "Travis Kelce", TeamCode: "KC", Position: "TE", SourceID: "espn", ObservedAt: observed},
			{RawName: "Josh Allen", TeamCode: "BUF", Position: "QB", SourceID: "espn", ObservedAt: observed},
		}},
		stubRosterSource{id: "sleeper", rows: []observation.Raw{
			{RawName: "P. Mahomes", TeamCode: "KC", Position: "QB", SourceID: "sleeper", ObservedAt: observed},
		}},
	}

	injuryRepo := memory.NewInjuryRepository()
	injuryRepo.Seed([]injury.Record{
		{
			ID:          "inj-1",
			PlayerName:  "P. Mahomes",
			Team:        "KC",
			Position:    "QB",
			Designation: injury.DesignationQuestionable,
			IsActive:    true,
			LastUpdated: observed.AddDate(0, 0, -2),
			SourceID:    "injuryfeed",
		},
		{
			ID:          "inj-2",
			PlayerName:  "Josh Allen",
			Team:        "MIA",
			Position:    "QB",
			Designation: injury.DesignationDoubtful,
			IsActive:    true,
			LastUpdated: observed.AddDate(0, 0, -1),
			SourceID:    "injuryfeed",
		},
		{
			ID:          "inj-3",
			PlayerName:  "Travis Kelce",
			Team:        "KC",
			Designation: injury.DesignationQuestionable,
			IsActive:    true,
			LastUpdated: observed.AddDate(0, 0, -30),
			SourceID:    "injuryfeed",
		},
	})

	service, rosterRepo, mismatchRepo, runRepo := newTestPipeline(t, sources, injuryRepo)

	run, validation, err := service.Run(context.Background())
	require.NoError(t, err)

	// Mahomes observed twice merges into one identity.
	require.Equal(t, 3, run.IdentitiesResolved)
	require.Equal(t, 1, run.GroupsMerged)

	entries, err := rosterRepo.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// inj-1 resolves to Mahomes, inj-2 to Allen with a reliable team fix.
	records, err := injuryRepo.ListAll(context.Background())
	require.NoError(t, err)
	byID := map[string]injury.Record{}
	for _, record := range records {
		byID[record.ID] = record
	}
	require.Equal(t, "patrick mahomes", byID["inj-1"].ResolvedPlayerKey)
	require.Equal(t, "KC", byID["inj-1"].Team)
	require.Equal(t, "BUF", byID["inj-2"].Team)
	require.Equal(t, 1, run.TeamCorrections)

	mismatches, err := mismatchRepo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, "MIA", mismatches[0].OtherTeam)

	// inj-3 is a month old and questionable, so pruning deactivates it.
	require.False(t, byID["inj-3"].IsActive)
	require.GreaterOrEqual(t, run.InjuriesDeactivated, 1)

	require.NotEmpty(t, validation.Details)
	require.NotEmpty(t, validation.Summaries)

	runs := runRepo.Runs()
	require.Len(t, runs, 1)
	require.Equal(t, run.RunID, runs[0].RunID)
}

func TestPipelineAbortsWhenEverySourceFails(t *testing.T) {
	sources := []ObservationSource{
		stubRosterSource{id: "espn", err: context.DeadlineExceeded},
	}
	injuryRepo := memory.NewInjuryRepository()
	service, rosterRepo, _, _ := newTestPipeline(t, sources, injuryRepo)

	_, _, err := service.Run(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)

	entries, listErr := rosterRepo.ListEntries(context.Background())
	require.NoError(t, listErr)
	require.Empty(t, entries, "no partial roster commit on a failed run")
}
