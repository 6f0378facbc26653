package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/names"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

type PrunerConfig struct {
	StalenessDays int
}

type PruneResult struct {
	Records             []injury.Record
	DuplicatesCollapsed int
	Deactivated         int
}

// PruneService owns the injury IsActive flag. It collapses duplicate records
// per player down to the most recent one and deactivates non-severe records
// older than the staleness window. The outcome is a pure function of
// (now, records).
type PruneService struct {
	cfg    PrunerConfig
	logger *logging.Logger
}

func NewPruneService(cfg PrunerConfig, logger *logging.Logger) *PruneService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.StalenessDays < 1 {
		cfg.StalenessDays = 10
	}
	return &PruneService{cfg: cfg, logger: logger}
}

func (s *PruneService) Prune(ctx context.Context, now time.Time, records []injury.Record) (PruneResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PruneService.Prune")
	defer span.End()

	sorted := append([]injury.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	latestByPlayer := make(map[string]injury.Record, len(sorted))
	for _, record := range sorted {
		player := pruneKey(record)
		current, ok := latestByPlayer[player]
		if !ok {
			latestByPlayer[player] = record
			continue
		}
		if record.LastUpdated.After(current.LastUpdated) ||
			(record.LastUpdated.Equal(current.LastUpdated) && record.ID < current.ID) {
			latestByPlayer[player] = record
		}
	}

	cutoff := now.AddDate(0, 0, -s.cfg.StalenessDays)
	result := PruneResult{Records: make([]injury.Record, 0, len(sorted))}

	for _, record := range sorted {
		wasActive := record.IsActive
		latest := latestByPlayer[pruneKey(record)]

		switch {
		case record.ID != latest.ID:
			record.IsActive = false
			if wasActive {
				result.DuplicatesCollapsed++
			}
		default:
			record.IsActive = s.shouldStayActive(record, cutoff)
		}

		if wasActive && !record.IsActive {
			result.Deactivated++
		}
		result.Records = append(result.Records, record)
	}

	s.logger.DebugContext(ctx, "injury pruning complete",
		"records", len(result.Records),
		"duplicates_collapsed", result.DuplicatesCollapsed,
		"deactivated", result.Deactivated,
	)
	return result, nil
}

// shouldStayActive applies the activation rule to a player's latest record:
// severe designations never age out, lighter ones expire past the staleness
// window, and records with no recognized designation go inactive.
func (s *PruneService) shouldStayActive(record injury.Record, cutoff time.Time) bool {
	tier := record.SeverityTier
	if tier == 0 {
		tier = record.Designation.Tier()
	}

	switch {
	case tier >= injury.TierSevere:
		return true
	case tier >= injury.TierQuestionable:
		return !record.LastUpdated.Before(cutoff)
	default:
		return false
	}
}

func pruneKey(record injury.Record) string {
	if record.ResolvedPlayerKey != "" {
		return record.ResolvedPlayerKey
	}
	if key, err := names.Canonicalize(record.PlayerName); err == nil {
		return key
	}
	return record.ID
}
