package usecase

import (
	"context"
	"sort"

	"github.com/gridironlabs/roster-engine/internal/domain/identity"
	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/names"
	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/domain/roster"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

type CapperConfig struct {
	RosterCap int
	// SourcePriority feeds the keep score so players asserted by trusted
	// sources survive the cut before long-tail depth entries.
	SourcePriority map[string]int
}

type CapResult struct {
	Entries   []roster.Entry
	CappedOut int
}

const (
	activityKeepBonus = 100.0
	quarterbackBonus  = 0.5
)

// CapperService trims each team's resolved identities down to the roster
// cap. Players carrying an active injury designation bypass the cap
// entirely; everyone else competes on a keep score built from game activity
// and source trust.
type CapperService struct {
	cfg    CapperConfig
	logger *logging.Logger
}

func NewCapperService(cfg CapperConfig, logger *logging.Logger) *CapperService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RosterCap < 1 {
		cfg.RosterCap = roster.DefaultCap
	}
	return &CapperService{cfg: cfg, logger: logger}
}

// Cap applies the per-team roster cap. activeInjured holds canonical keys of
// players with an active injury record from the previous run.
func (s *CapperService) Cap(
	ctx context.Context,
	identities []identity.PlayerIdentity,
	activity []observation.Activity,
	activeInjuries []injury.Record,
) (CapResult, error) {
	ctx, span := startUsecaseSpan(ctx, "CapperService.Cap")
	defer span.End()

	activeKeys := activeInjuryKeys(activeInjuries)
	activityKeys := activityKeySet(activity)

	byTeam := make(map[string][]roster.Entry)
	for _, player := range identities {
		entry := roster.Entry{
			TeamCode:       player.TeamCode,
			Player:         player,
			InjuryOverride: hasKey(activeKeys, player.CanonicalKey),
			RankScore:      s.keepScore(player, activityKeys),
		}
		byTeam[player.TeamCode] = append(byTeam[player.TeamCode], entry)
	}

	teams := make([]string, 0, len(byTeam))
	for team := range byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	result := CapResult{Entries: make([]roster.Entry, 0, len(identities))}
	for _, team := range teams {
		entries := byTeam[team]
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].InjuryOverride != entries[j].InjuryOverride {
				return entries[i].InjuryOverride
			}
			if entries[i].RankScore != entries[j].RankScore {
				return entries[i].RankScore > entries[j].RankScore
			}
			return entries[i].Player.CanonicalKey < entries[j].Player.CanonicalKey
		})

		kept := 0
		for _, entry := range entries {
			if entry.InjuryOverride || kept < s.cfg.RosterCap {
				result.Entries = append(result.Entries, entry)
				if !entry.InjuryOverride {
					kept++
				}
				continue
			}
			result.CappedOut++
		}

		if len(entries) > s.cfg.RosterCap {
			s.logger.DebugContext(ctx, "team roster capped",
				"team_code", team,
				"candidates", len(entries),
				"cap", s.cfg.RosterCap,
			)
		}
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		if result.Entries[i].TeamCode != result.Entries[j].TeamCode {
			return result.Entries[i].TeamCode < result.Entries[j].TeamCode
		}
		return result.Entries[i].Player.CanonicalKey < result.Entries[j].Player.CanonicalKey
	})

	return result, nil
}

func (s *CapperService) keepScore(player identity.PlayerIdentity, activityKeys map[string]struct{}) float64 {
	score := float64(s.cfg.SourcePriority[player.WinningSourceID])
	if hasKey(activityKeys, player.CanonicalKey) {
		score += activityKeepBonus
	}
	if player.Position == "QB" {
		score += quarterbackBonus
	}
	return score
}

func activeInjuryKeys(records []injury.Record) map[string]struct{} {
	keys := make(map[string]struct{}, len(records))
	for _, record := range records {
		if !record.IsActive {
			continue
		}
		if record.ResolvedPlayerKey != "" {
			keys[record.ResolvedPlayerKey] = struct{}{}
			continue
		}
		if key, err := names.Canonicalize(record.PlayerName); err == nil {
			keys[key] = struct{}{}
		}
	}
	return keys
}

func activityKeySet(rows []observation.Activity) map[string]struct{} {
	keys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key, err := names.Canonicalize(row.RawName)
		if err != nil {
			continue
		}
		keys[key] = struct{}{}
		for _, variant := range names.Variants(row.RawName) {
			keys[variant] = struct{}{}
		}
	}
	return keys
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
