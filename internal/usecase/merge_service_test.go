package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

func mergeTestConfig() MergeConfig {
	return MergeConfig{
		SourcePriority: map[string]int{
			"espn":       5,
			"sleeper":    4,
			"depthchart": 2,
		},
		AuthoritativeSources: map[string]struct{}{"espn": {}},
	}
}

func obs(name, team, position, sourceID string) observation.Raw {
	return observation.Raw{
		RawName:    name,
		TeamCode:   team,
		Position:   position,
		SourceID:   sourceID,
		ObservedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestMergeAuthoritativeTeamWins(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("Garrett Wilson", "NYJ", "WR", "espn"),
		obs("Garrett Wilson", "DEN", "WR", "depthchart"),
	})
	require.NoError(t, err)
	require.Len(t, result.Identities, 1)

	got := result.Identities[0]
	require.Equal(t, "NYJ", got.TeamCode)
	require.Equal(t, "espn", got.WinningSourceID)
	require.Equal(t, []string{"depthchart", "espn"}, got.SourceIDs)
}

func TestMergeWeightedVotingWithoutAuthoritativeSource(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("Chris Olave", "NO", "WR", "sleeper"),
		obs("Chris Olave", "ATL", "WR", "depthchart"),
	})
	require.NoError(t, err)
	require.Len(t, result.Identities, 1)
	require.Equal(t, "NO", result.Identities[0].TeamCode)
	require.Equal(t, "sleeper", result.Identities[0].WinningSourceID)
}

func TestMergeEqualWeightVoteBreaksTieOnSourceID(t *testing.T) {
	service := NewMergeService(MergeConfig{
		SourcePriority: map[string]int{"feedalpha": 3, "feedomega": 3},
	}, logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("John Doe", "BUF", "WR", "feedalpha"),
		obs("John Doe", "ATL", "WR", "feedomega"),
	})
	require.NoError(t, err)
	require.Len(t, result.Identities, 1)

	// Equal weights and equal supporting priority: the team backed by the
	// lexicographically smaller source id wins, not the alphabetically
	// first team name.
	require.Equal(t, "BUF", result.Identities[0].TeamCode)
	require.Equal(t, "feedalpha", result.Identities[0].WinningSourceID)
}

func TestMergeGroupsNicknameForms(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("Michael Thomas", "NO", "WR", "espn"),
		obs("Mike Thomas", "NO", "WR", "sleeper"),
	})
	require.NoError(t, err)
	require.Len(t, result.Identities, 1)
	require.Equal(t, 1, result.GroupsMerged)
	require.Equal(t, "Michael Thomas", result.Identities[0].DisplayName)
}

func TestMergeKeepsPunctuationCompleteDisplayName(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("dandre swift", "CHI", "RB", "depthchart"),
		obs("D'Andre Swift", "CHI", "RB", "espn"),
	})
	require.NoError(t, err)
	require.Len(t, result.Identities, 1)
	require.Equal(t, "D'Andre Swift", result.Identities[0].DisplayName)
	require.Equal(t, "dandre swift", result.Identities[0].CanonicalKey)
}

func TestMergeDeterministicAcrossRuns(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())
	rows := []observation.Raw{
		obs("Patrick Mahomes II", "KC", "QB", "espn"),
		obs("P. Mahomes", "KC", "QB", "sleeper"),
		obs("Travis Kelce", "KC", "TE", "espn"),
		obs("Josh Allen", "BUF", "QB", "sleeper"),
		obs("Josh Allen", "BUF", "QB", "espn"),
		obs("Garrett Wilson", "NYJ", "WR", "depthchart"),
	}

	first, err := service.Merge(context.Background(), rows)
	require.NoError(t, err)

	// Same input reversed must produce identical output.
	reversed := make([]observation.Raw, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		reversed = append(reversed, rows[i])
	}
	second, err := service.Merge(context.Background(), reversed)
	require.NoError(t, err)

	require.Equal(t, first.Identities, second.Identities)
}

func TestMergeOneIdentityPerCanonicalKey(t *testing.T) {
	service := NewMergeService(mergeTestConfig(), logging.NewNop())

	result, err := service.Merge(context.Background(), []observation.Raw{
		obs("Patrick Mahomes", "KC", "QB", "espn"),
		obs("Patrick Mahomes", "KC", "QB", "sleeper"),
		obs("Patrick Mahomes Jr", "KC", "QB", "depthchart"),
	})
	require.NoError(t, err)

	seen := map[string]struct{}{}
	for _, player := range result.Identities {
		if _, dup := seen[player.CanonicalKey]; dup {
			t.Fatalf("duplicate canonical key %q in merge output", player.CanonicalKey)
		}
		seen[player.CanonicalKey] = struct{}{}
	}
	require.Len(t, result.Identities, 1)
}
