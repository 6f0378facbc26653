package usecase

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
	"github.com/gridironlabs/roster-engine/internal/domain/report"
	"github.com/gridironlabs/roster-engine/internal/domain/roster"
	"github.com/gridironlabs/roster-engine/internal/metrics"
	"github.com/gridironlabs/roster-engine/internal/platform/id"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

// PipelineService drives one full reconciliation run: harvest, merge, cap,
// match, prune, validate, then persist. Each write-bearing stage commits its
// complete in-memory result in a single transaction, so readers only ever
// see the previous run or this one, never a half-applied mix.
type PipelineService struct {
	harvester *HarvestService
	merger    *MergeService
	capper    *CapperService
	matcher   *MatchService
	pruner    *PruneService
	validator *ValidatorService

	rosterRepo   roster.Repository
	injuryRepo   injury.Repository
	mismatchRepo mismatch.Repository
	runRepo      report.Repository

	idGen  id.Generator
	logger *logging.Logger
	now    func() time.Time
}

type PipelineDeps struct {
	Harvester *HarvestService
	Merger    *MergeService
	Capper    *CapperService
	Matcher   *MatchService
	Pruner    *PruneService
	Validator *ValidatorService

	RosterRepo   roster.Repository
	InjuryRepo   injury.Repository
	MismatchRepo mismatch.Repository
	RunRepo      report.Repository

	IDGenerator id.Generator
	Logger      *logging.Logger
}

func NewPipelineService(deps PipelineDeps) (*PipelineService, error) {
	if deps.Harvester == nil || deps.Merger == nil || deps.Capper == nil ||
		deps.Matcher == nil || deps.Pruner == nil || deps.Validator == nil {
		return nil, fmt.Errorf("%w: all pipeline stages are required", ErrInvalidInput)
	}
	if deps.RosterRepo == nil || deps.InjuryRepo == nil || deps.MismatchRepo == nil {
		return nil, fmt.Errorf("%w: roster, injury and mismatch repositories are required", ErrInvalidInput)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = id.NewUUIDGenerator("run")
	}

	return &PipelineService{
		harvester:    deps.Harvester,
		merger:       deps.Merger,
		capper:       deps.Capper,
		matcher:      deps.Matcher,
		pruner:       deps.Pruner,
		validator:    deps.Validator,
		rosterRepo:   deps.RosterRepo,
		injuryRepo:   deps.InjuryRepo,
		mismatchRepo: deps.MismatchRepo,
		runRepo:      deps.RunRepo,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Run executes one pipeline pass and returns the run report plus the
// rebuilt diagnostic views.
func (s *PipelineService) Run(ctx context.Context) (report.Run, ValidationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "PipelineService.Run")
	defer span.End()

	started := s.now().UTC()
	runID, err := s.idGen.NewID()
	if err != nil {
		return report.Run{}, ValidationResult{}, fmt.Errorf("generate run id: %w", err)
	}

	run := report.Run{RunID: runID, StartedAt: started}
	logger := s.logger.With("run_id", runID)
	logger.InfoContext(ctx, "pipeline run started")

	harvested, err := s.harvester.Harvest(ctx)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("harvest stage: %w", err)
	}
	run.ObservationsBySource = harvested.BySource
	run.SourcesFailed = harvested.SourcesFailed
	run.MalformedDropped = harvested.MalformedDropped
	run.NonPlayerDropped = harvested.NonPlayerDropped
	run.ActivityRows = len(harvested.Activity)
	metrics.RecordHarvest(harvested.BySource, harvested.SourcesFailed)
	metrics.RecordDrops(harvested.MalformedDropped, harvested.NonPlayerDropped)

	merged, err := s.merger.Merge(ctx, harvested.Observations)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("merge stage: %w", err)
	}
	run.IdentitiesResolved = len(merged.Identities)
	run.GroupsMerged = merged.GroupsMerged
	metrics.IdentitiesResolved.Set(float64(len(merged.Identities)))

	activeInjuries, err := s.injuryRepo.ListActive(ctx)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: list active injuries: %v", ErrStoreUnavailable, err)
	}

	capped, err := s.capper.Cap(ctx, merged.Identities, harvested.Activity, activeInjuries)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("cap stage: %w", err)
	}
	run.RosterEntriesKept = len(capped.Entries)
	run.CappedOut = capped.CappedOut
	metrics.RosterEntries.Set(float64(len(capped.Entries)))

	if err := s.rosterRepo.ReplaceAll(ctx, capped.Entries); err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: commit roster: %v", ErrStoreUnavailable, err)
	}

	injuries, err := s.injuryRepo.ListAll(ctx)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: list injuries: %v", ErrStoreUnavailable, err)
	}

	matched, err := s.matcher.Match(ctx, injuries, capped.Entries, runID)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("match stage: %w", err)
	}
	run.MatchedExact = matched.MatchedExact
	run.MatchedVariant = matched.MatchedVariant
	run.MatchedFuzzy = matched.MatchedFuzzy
	run.Unresolved = matched.Unresolved
	run.TeamCorrections = matched.TeamCorrections
	run.MismatchesEmitted = len(matched.Mismatches)
	metrics.RecordMatches(matched.MatchedExact, matched.MatchedVariant, matched.MatchedFuzzy, matched.Unresolved)
	metrics.MismatchesEmitted.Add(float64(len(matched.Mismatches)))

	if err := s.injuryRepo.ApplyMatches(ctx, matched.Records); err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: commit injury matches: %v", ErrStoreUnavailable, err)
	}
	if err := s.mismatchRepo.ReplaceAll(ctx, matched.Mismatches); err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: commit mismatches: %v", ErrStoreUnavailable, err)
	}

	pruned, err := s.pruner.Prune(ctx, s.now().UTC(), matched.Records)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("prune stage: %w", err)
	}
	run.DuplicatesCollapsed = pruned.DuplicatesCollapsed
	run.InjuriesDeactivated = pruned.Deactivated
	metrics.InjuriesDeactivated.Add(float64(pruned.Deactivated))

	deactivateIDs := make([]string, 0, pruned.Deactivated)
	for _, record := range pruned.Records {
		if !record.IsActive {
			deactivateIDs = append(deactivateIDs, record.ID)
		}
	}
	if err := s.injuryRepo.Deactivate(ctx, deactivateIDs); err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("%w: commit deactivations: %v", ErrStoreUnavailable, err)
	}

	validation, err := s.validator.Validate(ctx, pruned.Records, capped.Entries, matched.Mismatches)
	if err != nil {
		s.finishRun(ctx, &run, "failed")
		return run, ValidationResult{}, fmt.Errorf("validate stage: %w", err)
	}

	s.finishRun(ctx, &run, "success")

	payload, err := renderRunReport(run)
	if err != nil {
		logger.WarnContext(ctx, "render run report failed", "error", err)
	} else if s.runRepo != nil {
		if err := s.runRepo.Insert(ctx, run, payload); err != nil {
			logger.WarnContext(ctx, "persist run report failed", "error", err)
		}
	}

	logger.InfoContext(ctx, "pipeline run finished",
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		"identities_resolved", run.IdentitiesResolved,
		"roster_entries_kept", run.RosterEntriesKept,
		"capped_out", run.CappedOut,
		"matched_exact", run.MatchedExact,
		"matched_variant", run.MatchedVariant,
		"matched_fuzzy", run.MatchedFuzzy,
		"unresolved", run.Unresolved,
		"mismatches_emitted", run.MismatchesEmitted,
		"injuries_deactivated", run.InjuriesDeactivated,
	)

	return run, validation, nil
}

func (s *PipelineService) finishRun(ctx context.Context, run *report.Run, status string) {
	run.FinishedAt = s.now().UTC()
	metrics.RecordRun(status, run.FinishedAt.Sub(run.StartedAt).Seconds())
	if status != "success" {
		s.logger.ErrorContext(ctx, "pipeline run failed", "run_id", run.RunID)
	}
}

// renderRunReport serializes the report through a pooled buffer so daemon
// mode does not reallocate per run.
func renderRunReport(run report.Run) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoder := sonic.ConfigDefault.NewEncoder(buf)
	if err := encoder.Encode(run); err != nil {
		return nil, fmt.Errorf("encode run report: %w", err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
