package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"

	"github.com/gridironlabs/roster-engine/internal/domain/names"
	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

// ObservationSource is one roster feed adapter. Implementations live under
// external/ and own their transport, decoding and circuit breaking.
type ObservationSource interface {
	SourceID() string
	FetchRoster(ctx context.Context) ([]observation.Raw, error)
}

// ActivitySource reports players seen in current-season game data.
type ActivitySource interface {
	SourceID() string
	FetchActivity(ctx context.Context) ([]observation.Activity, error)
}

type HarvestConfig struct {
	Concurrency   int
	SourceTimeout time.Duration
}

// HarvestResult carries one run's worth of validated feed output. A failed
// source appears in SourcesFailed and contributes nothing else; the run
// proceeds with whatever the remaining sources returned.
type HarvestResult struct {
	Observations     []observation.Raw
	Activity         []observation.Activity
	BySource         map[string]int
	SourcesFailed    []string
	MalformedDropped int
	NonPlayerDropped int
}

type HarvestService struct {
	cfg      HarvestConfig
	sources  []ObservationSource
	activity []ActivitySource
	validate *validator.Validate
	logger   *logging.Logger
}

func NewHarvestService(cfg HarvestConfig, sources []ObservationSource, activity []ActivitySource, logger *logging.Logger) *HarvestService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 12 * time.Second
	}

	return &HarvestService{
		cfg:      cfg,
		sources:  sources,
		activity: activity,
		validate: validator.New(),
		logger:   logger,
	}
}

type harvestOutcome struct {
	sourceID   string
	rows       []observation.Raw
	activity   []observation.Activity
	isActivity bool
	err        error
}

// Harvest fans out to every configured source on a bounded worker pool and
// merges the validated output in a deterministic order.
func (s *HarvestService) Harvest(ctx context.Context) (HarvestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "HarvestService.Harvest")
	defer span.End()

	if len(s.sources) == 0 {
		return HarvestResult{}, fmt.Errorf("%w: no observation sources configured", ErrInvalidInput)
	}

	taskCount := len(s.sources) + len(s.activity)
	outcomes := make(chan harvestOutcome, taskCount)

	pool, err := ants.NewPool(s.cfg.Concurrency)
	if err != nil {
		return HarvestResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, source := range s.sources {
		source := source
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			rows, err := s.fetchRoster(ctx, source)
			outcomes <- harvestOutcome{sourceID: source.SourceID(), rows: rows, err: err}
		}); err != nil {
			workers.Done()
			return HarvestResult{}, fmt.Errorf("submit roster fetch to worker pool: %w", err)
		}
	}
	for _, source := range s.activity {
		source := source
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			rows, err := s.fetchActivity(ctx, source)
			outcomes <- harvestOutcome{sourceID: source.SourceID(), activity: rows, isActivity: true, err: err}
		}); err != nil {
			workers.Done()
			return HarvestResult{}, fmt.Errorf("submit activity fetch to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(outcomes)

	result := HarvestResult{BySource: make(map[string]int, len(s.sources))}
	failed := make(map[string]struct{})
	rosterFailures := 0
	for outcome := range outcomes {
		if outcome.err != nil {
			s.logger.WarnContext(ctx, "source harvest failed",
				"source_id", outcome.sourceID,
				"activity", outcome.isActivity,
				"error", outcome.err,
			)
			failed[outcome.sourceID] = struct{}{}
			if !outcome.isActivity {
				rosterFailures++
			}
			continue
		}
		if outcome.isActivity {
			result.Activity = append(result.Activity, outcome.activity...)
			continue
		}
		result.BySource[outcome.sourceID] = len(outcome.rows)
		result.Observations = append(result.Observations, outcome.rows...)
	}

	for sourceID := range failed {
		result.SourcesFailed = append(result.SourcesFailed, sourceID)
	}
	sort.Strings(result.SourcesFailed)

	kept, malformed, nonPlayer := s.filterObservations(ctx, result.Observations)
	result.Observations = kept
	result.MalformedDropped = malformed
	result.NonPlayerDropped = nonPlayer

	sort.SliceStable(result.Observations, func(i, j int) bool {
		a, b := result.Observations[i], result.Observations[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TeamCode != b.TeamCode {
			return a.TeamCode < b.TeamCode
		}
		return a.RawName < b.RawName
	})
	sort.SliceStable(result.Activity, func(i, j int) bool {
		a, b := result.Activity[i], result.Activity[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.RawName < b.RawName
	})

	if rosterFailures == len(s.sources) {
		return result, fmt.Errorf("%w: all %d roster sources failed", ErrSourceUnavailable, len(s.sources))
	}

	return result, nil
}

func (s *HarvestService) fetchRoster(ctx context.Context, source ObservationSource) ([]observation.Raw, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	started := time.Now()
	rows, err := source.FetchRoster(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch roster from %s: %v", ErrSourceUnavailable, source.SourceID(), err)
	}

	s.logger.DebugContext(ctx, "roster source fetched",
		"source_id", source.SourceID(),
		"rows", len(rows),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return rows, nil
}

func (s *HarvestService) fetchActivity(ctx context.Context, source ActivitySource) ([]observation.Activity, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	rows, err := source.FetchActivity(fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch activity from %s: %v", ErrSourceUnavailable, source.SourceID(), err)
	}
	if rows == nil {
		rows = []observation.Activity{}
	}
	return rows, nil
}

// filterObservations drops rows that fail struct validation, rows whose names
// cannot canonicalize, and rows describing non-player staff. Team codes are
// uppercased here so every later stage sees one spelling.
func (s *HarvestService) filterObservations(ctx context.Context, rows []observation.Raw) ([]observation.Raw, int, int) {
	kept := make([]observation.Raw, 0, len(rows))
	malformed := 0
	nonPlayer := 0

	for _, row := range rows {
		row.RawName = strings.TrimSpace(row.RawName)
		row.TeamCode = strings.ToUpper(strings.TrimSpace(row.TeamCode))
		row.Position = strings.ToUpper(strings.TrimSpace(row.Position))

		if err := s.validate.Struct(row); err != nil {
			malformed++
			s.logger.DebugContext(ctx, "dropped malformed observation",
				"source_id", row.SourceID,
				"raw_name", row.RawName,
				"error", fmt.Errorf("%w: %v", ErrMalformedRecord, err),
			)
			continue
		}
		if _, err := names.Canonicalize(row.RawName); err != nil {
			malformed++
			continue
		}
		if names.IsNonPlayer(row.RawName) {
			nonPlayer++
			continue
		}

		kept = append(kept, row)
	}

	return kept, malformed, nonPlayer
}
