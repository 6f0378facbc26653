package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

type stubRosterSource struct {
	id   string
	rows []observation.Raw
	err  error
}

func (s stubRosterSource) SourceID() string { return s.id }

func (s stubRosterSource) FetchRoster(ctx context.Context) ([]observation.Raw, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type stubActivitySource struct {
	id   string
	rows []observation.Activity
	err  error
}

func (s stubActivitySource) SourceID() string { return s.id }

func (s stubActivitySource) FetchActivity(ctx context.Context) ([]observation.Activity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func harvestTestConfig() HarvestConfig {
	return HarvestConfig{Concurrency: 2, SourceTimeout: time.Second}
}

func TestHarvestMergesSourcesDeterministically(t *testing.T) {
	observed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	sources := []ObservationSource{
		stubRosterSource{id: "sleeper", rows: []observation.Raw{
			{RawName: "Josh Allen", TeamCode: "buf", Position: "qb", SourceID: "sleeper", ObservedAt: observed},
		}},
		stubRosterSource{id: "espn", rows: []observation.Raw{
			{RawName: "Patrick Mahomes", TeamCode: "KC", Position: "QB", SourceID: "espn", ObservedAt: observed},
			{RawName: "Travis Kelce", TeamCode: "KC", Position: "TE", SourceID: "espn", ObservedAt: observed},
		}},
	}

	service := NewHarvestService(harvestTestConfig(), sources, nil, logging.NewNop())
	result, err := service.Harvest(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Observations, 3)
	require.Equal(t, 2, result.BySource["espn"])
	require.Equal(t, 1, result.BySource["sleeper"])

	// Sorted by source, then team, then name; codes uppercased.
	require.Equal(t, "espn", result.Observations[0].SourceID)
	require.Equal(t, "BUF", result.Observations[2].TeamCode)
	require.Equal(t, "QB", result.Observations[2].Position)
}

func TestHarvestFailedSourceDoesNotAbortRun(t *testing.T) {
	observed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	sources := []ObservationSource{
		stubRosterSource{id: "espn", err: errors.New("connection refused")},
		stubRosterSource{id: "sleeper", rows: []observation.Raw{
			{RawName: "Josh Allen", TeamCode: "BUF", SourceID: "sleeper", ObservedAt: observed},
		}},
	}

	service := NewHarvestService(harvestTestConfig(), sources, nil, logging.NewNop())
	result, err := service.Harvest(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"espn"}, result.SourcesFailed)
	require.Len(t, result.Observations, 1)
}

func TestHarvestAllSourcesFailedIsAnError(t *testing.T) {
	sources := []ObservationSource{
		stubRosterSource{id: "espn", err: errors.New("timeout")},
		stubRosterSource{id: "sleeper", err: errors.New("timeout")},
	}

	service := NewHarvestService(harvestTestConfig(), sources, nil, logging.NewNop())
	_, err := service.Harvest(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHarvestDropsMalformedAndNonPlayerRows(t *testing.T) {
	observed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	sources := []ObservationSource{
		stubRosterSource{id: "espn", rows: []observation.Raw{
			{RawName: "Patrick Mahomes", TeamCode: "KC", SourceID: "espn", ObservedAt: observed},
			{RawName: "", TeamCode: "KC", SourceID: "espn", ObservedAt: observed},
			{RawName: "No Team Player", TeamCode: "", SourceID: "espn", ObservedAt: observed},
			{RawName: "Andy Reid Coach", TeamCode: "KC", SourceID: "espn", ObservedAt: observed},
		}},
	}

	service := NewHarvestService(harvestTestConfig(), sources, nil, logging.NewNop())
	result, err := service.Harvest(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Observations, 1)
	require.Equal(t, 2, result.MalformedDropped)
	require.Equal(t, 1, result.NonPlayerDropped)
}

func TestHarvestCollectsActivityRows(t *testing.T) {
	observed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	sources := []ObservationSource{
		stubRosterSource{id: "espn", rows: []observation.Raw{
			{RawName: "Patrick Mahomes", TeamCode: "KC", SourceID: "espn", ObservedAt: observed},
		}},
	}
	activity := []ActivitySource{
		stubActivitySource{id: "sleeper", rows: []observation.Activity{
			{RawName: "Patrick Mahomes", TeamCode: "KC", Week: 1, SourceID: "sleeper"},
		}},
	}

	service := NewHarvestService(harvestTestConfig(), sources, activity, logging.NewNop())
	result, err := service.Harvest(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Activity, 1)
}

func TestHarvestRequiresSources(t *testing.T) {
	service := NewHarvestService(harvestTestConfig(), nil, nil, logging.NewNop())
	_, err := service.Harvest(context.Background())
	require.ErrorIs(t, err, ErrInvalidInput)
}
