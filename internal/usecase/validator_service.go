package usecase

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
	"github.com/gridironlabs/roster-engine/internal/domain/roster"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

// InjuryDetail is the per-injury diagnostic row: where the roster thinks the
// player is versus what the injury record says.
type InjuryDetail struct {
	InjuryID        string  `json:"injury_id"`
	PlayerName      string  `json:"player_name"`
	ResolvedKey     string  `json:"resolved_key,omitempty"`
	RosterTeam      string  `json:"roster_team,omitempty"`
	InjuryTeam      string  `json:"injury_team,omitempty"`
	TeamMismatch    bool    `json:"team_mismatch"`
	MissingRoster   bool    `json:"missing_roster_team"`
	MissingInjury   bool    `json:"missing_injury_team"`
	Designation     string  `json:"designation,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// TeamSummary aggregates injury and mismatch counts for one team.
type TeamSummary struct {
	TeamCode          string `json:"team_code"`
	OutCount          int    `json:"out_count"`
	DoubtfulCount     int    `json:"doubtful_count"`
	QuestionableCount int    `json:"questionable_count"`
	MismatchCount     int    `json:"mismatch_count"`
}

type ValidationResult struct {
	Details   []InjuryDetail
	Summaries []TeamSummary
}

// ValidatorService recomputes the read-only diagnostic views each run. It
// owns no state and never writes to the roster or injury tables.
type ValidatorService struct {
	logger *logging.Logger
}

func NewValidatorService(logger *logging.Logger) *ValidatorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ValidatorService{logger: logger}
}

// Validate derives both views from the run's outputs. The detail and summary
// computations are independent, so they run on their own goroutines.
func (s *ValidatorService) Validate(
	ctx context.Context,
	records []injury.Record,
	entries []roster.Entry,
	mismatches []mismatch.Record,
) (ValidationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ValidatorService.Validate")
	defer span.End()

	teamByKey := make(map[string]string, len(entries))
	for _, entry := range entries {
		teamByKey[entry.Player.CanonicalKey] = entry.TeamCode
	}

	var result ValidationResult
	var wg conc.WaitGroup
	wg.Go(func() {
		result.Details = buildInjuryDetails(records, teamByKey)
	})
	wg.Go(func() {
		result.Summaries = buildTeamSummaries(records, teamByKey, mismatches)
	})
	wg.Wait()

	s.logger.DebugContext(ctx, "diagnostic views rebuilt",
		"details", len(result.Details),
		"team_summaries", len(result.Summaries),
	)
	return result, nil
}

func buildInjuryDetails(records []injury.Record, teamByKey map[string]string) []InjuryDetail {
	details := make([]InjuryDetail, 0, len(records))
	for _, record := range records {
		rosterTeam := ""
		if record.ResolvedPlayerKey != "" {
			rosterTeam = teamByKey[record.ResolvedPlayerKey]
		}
		detail := InjuryDetail{
			InjuryID:        record.ID,
			PlayerName:      record.PlayerName,
			ResolvedKey:     record.ResolvedPlayerKey,
			RosterTeam:      rosterTeam,
			InjuryTeam:      record.Team,
			MissingRoster:   rosterTeam == "",
			MissingInjury:   record.Team == "",
			Designation:     string(record.Designation),
			ConfidenceScore: record.ConfidenceScore,
		}
		detail.TeamMismatch = rosterTeam != "" && record.Team != "" && rosterTeam != record.Team
		details = append(details, detail)
	}

	sort.SliceStable(details, func(i, j int) bool { return details[i].InjuryID < details[j].InjuryID })
	return details
}

func buildTeamSummaries(records []injury.Record, teamByKey map[string]string, mismatches []mismatch.Record) []TeamSummary {
	byTeam := make(map[string]*TeamSummary)
	summaryFor := func(team string) *TeamSummary {
		if team == "" {
			return nil
		}
		summary, ok := byTeam[team]
		if !ok {
			summary = &TeamSummary{TeamCode: team}
			byTeam[team] = summary
		}
		return summary
	}

	for _, record := range records {
		if !record.IsActive {
			continue
		}
		team := record.Team
		if record.ResolvedPlayerKey != "" {
			if rosterTeam, ok := teamByKey[record.ResolvedPlayerKey]; ok {
				team = rosterTeam
			}
		}
		summary := summaryFor(team)
		if summary == nil {
			continue
		}
		switch record.Designation.Tier() {
		case injury.TierSevere:
			summary.OutCount++
		case injury.TierDoubtful:
			summary.DoubtfulCount++
		case injury.TierQuestionable:
			summary.QuestionableCount++
		}
	}

	for _, record := range mismatches {
		if summary := summaryFor(record.RosterTeam); summary != nil {
			summary.MismatchCount++
		}
	}

	summaries := make([]TeamSummary, 0, len(byTeam))
	for _, summary := range byTeam {
		summaries = append(summaries, *summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].TeamCode < summaries[j].TeamCode })
	return summaries
}
