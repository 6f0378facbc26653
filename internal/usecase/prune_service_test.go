package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

func pruneRecord(id, player string, designation injury.Designation, lastUpdated time.Time) injury.Record {
	return injury.Record{
		ID:           id,
		PlayerName:   player,
		Team:         "KC",
		Designation:  designation,
		SeverityTier: designation.Tier(),
		IsActive:     true,
		LastUpdated:  lastUpdated,
		SourceID:     "injuryfeed",
	}
}

func TestPruneDeactivatesStaleQuestionable(t *testing.T) {
	service := NewPruneService(PrunerConfig{StalenessDays: 14}, logging.NewNop())
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	result, err := service.Prune(context.Background(), now, []injury.Record{
		pruneRecord("inj-1", "Old Questionable", injury.DesignationQuestionable, now.AddDate(0, 0, -20)),
		pruneRecord("inj-2", "Old Reserve", injury.DesignationIR, now.AddDate(0, 0, -20)),
	})
	require.NoError(t, err)

	byID := map[string]injury.Record{}
	for _, record := range result.Records {
		byID[record.ID] = record
	}
	require.False(t, byID["inj-1"].IsActive, "stale questionable must be deactivated")
	require.True(t, byID["inj-2"].IsActive, "severe designations never age out")
	require.Equal(t, 1, result.Deactivated)
}

func TestPruneKeepsFreshNonSevere(t *testing.T) {
	service := NewPruneService(PrunerConfig{StalenessDays: 10}, logging.NewNop())
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	result, err := service.Prune(context.Background(), now, []injury.Record{
		pruneRecord("inj-1", "Fresh Doubtful", injury.DesignationDoubtful, now.AddDate(0, 0, -3)),
	})
	require.NoError(t, err)
	require.True(t, result.Records[0].IsActive)
	require.Zero(t, result.Deactivated)
}

func TestPruneCollapsesDuplicatesToMostRecent(t *testing.T) {
	service := NewPruneService(PrunerConfig{StalenessDays: 10}, logging.NewNop())
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	older := pruneRecord("inj-1", "Travis Kelce", injury.DesignationQuestionable, now.AddDate(0, 0, -5))
	newer := pruneRecord("inj-2", "Travis Kelce", injury.DesignationDoubtful, now.AddDate(0, 0, -1))

	result, err := service.Prune(context.Background(), now, []injury.Record{older, newer})
	require.NoError(t, err)

	byID := map[string]injury.Record{}
	for _, record := range result.Records {
		byID[record.ID] = record
	}
	require.False(t, byID["inj-1"].IsActive, "older duplicate must be deactivated")
	require.True(t, byID["inj-2"].IsActive)
	require.Equal(t, 1, result.DuplicatesCollapsed)
}

func TestPruneDeactivatesUnrecognizedDesignation(t *testing.T) {
	service := NewPruneService(PrunerConfig{StalenessDays: 10}, logging.NewNop())
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	record := pruneRecord("inj-1", "Healthy Player", injury.DesignationNone, now)
	result, err := service.Prune(context.Background(), now, []injury.Record{record})
	require.NoError(t, err)
	require.False(t, result.Records[0].IsActive)
}

func TestPruneIsPureFunctionOfInputs(t *testing.T) {
	service := NewPruneService(PrunerConfig{StalenessDays: 10}, logging.NewNop())
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	records := []injury.Record{
		pruneRecord("inj-1", "Player One", injury.DesignationQuestionable, now.AddDate(0, 0, -15)),
		pruneRecord("inj-2", "Player Two", injury.DesignationIR, now.AddDate(0, 0, -30)),
		pruneRecord("inj-3", "Player One", injury.DesignationOut, now.AddDate(0, 0, -2)),
	}

	first, err := service.Prune(context.Background(), now, records)
	require.NoError(t, err)
	second, err := service.Prune(context.Background(), now, records)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
