package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
	"github.com/gridironlabs/roster-engine/internal/domain/mismatch"
	"github.com/gridironlabs/roster-engine/internal/domain/names"
	"github.com/gridironlabs/roster-engine/internal/domain/roster"
	"github.com/gridironlabs/roster-engine/internal/platform/id"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

const (
	confidenceExact       = 0.99
	confidenceVariant     = 0.90
	confidenceVariantTeam = 0.95
	lastNameScore         = 0.90
)

type MatcherConfig struct {
	FuzzyThreshold float64
	// ReliableTeamSources may overwrite an injury's stored team when the
	// resolved roster entry disagrees. Everyone else produces a mismatch
	// record instead.
	ReliableTeamSources map[string]struct{}
}

type MatchResult struct {
	Records         []injury.Record
	Mismatches      []mismatch.Record
	MatchedExact    int
	MatchedVariant  int
	MatchedFuzzy    int
	Unresolved      int
	TeamCorrections int
}

// MatchService links injury records to resolved roster identities. Matching
// runs tiers in order and stops at the first hit: exact canonical key, then
// name variants, then fuzzy scoring against a position-restricted pool.
type MatchService struct {
	cfg    MatcherConfig
	idGen  id.Generator
	logger *logging.Logger
}

func NewMatchService(cfg MatcherConfig, idGen id.Generator, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = 0.88
	}
	if idGen == nil {
		idGen = id.NewUUIDGenerator("mm")
	}
	return &MatchService{cfg: cfg, idGen: idGen, logger: logger}
}

// rosterIndex precomputes the lookup structures one Match call needs.
type rosterIndex struct {
	byKey      map[string]roster.Entry
	byVariant  map[string][]string
	byPosition map[string][]string
	allKeys    []string
}

func buildRosterIndex(entries []roster.Entry) rosterIndex {
	idx := rosterIndex{
		byKey:      make(map[string]roster.Entry, len(entries)),
		byVariant:  make(map[string][]string),
		byPosition: make(map[string][]string),
	}
	for _, entry := range entries {
		key := entry.Player.CanonicalKey
		if _, dup := idx.byKey[key]; dup {
			continue
		}
		idx.byKey[key] = entry
		idx.allKeys = append(idx.allKeys, key)
		idx.byPosition[entry.Player.Position] = append(idx.byPosition[entry.Player.Position], key)
		for _, variant := range names.Variants(entry.Player.DisplayName) {
			idx.byVariant[variant] = append(idx.byVariant[variant], key)
		}
	}
	sort.Strings(idx.allKeys)
	for variant := range idx.byVariant {
		sort.Strings(idx.byVariant[variant])
	}
	for position := range idx.byPosition {
		sort.Strings(idx.byPosition[position])
	}
	return idx
}

// Match resolves every injury record against the current roster. Confidence
// is monotonic within a run: a record already holding a higher confidence
// keeps its previous resolution.
func (s *MatchService) Match(
	ctx context.Context,
	records []injury.Record,
	entries []roster.Entry,
	runID string,
) (MatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.Match")
	defer span.End()

	idx := buildRosterIndex(entries)
	now := time.Now().UTC()

	sorted := append([]injury.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	result := MatchResult{Records: make([]injury.Record, 0, len(sorted))}
	for _, record := range sorted {
		updated, outcome, err := s.matchOne(ctx, record, idx, runID, now)
		if err != nil {
			return MatchResult{}, err
		}

		switch outcome.tier {
		case tierExact:
			result.MatchedExact++
		case tierVariant:
			result.MatchedVariant++
		case tierFuzzy:
			result.MatchedFuzzy++
		default:
			result.Unresolved++
		}
		if outcome.teamCorrected {
			result.TeamCorrections++
		}
		if outcome.mismatch != nil {
			result.Mismatches = append(result.Mismatches, *outcome.mismatch)
		}
		result.Records = append(result.Records, updated)
	}

	return result, nil
}

type matchTier int

const (
	tierUnresolved matchTier = iota
	tierFuzzy
	tierVariant
	tierExact
)

type matchOutcome struct {
	tier          matchTier
	teamCorrected bool
	mismatch      *mismatch.Record
}

func (s *MatchService) matchOne(
	ctx context.Context,
	record injury.Record,
	idx rosterIndex,
	runID string,
	now time.Time,
) (injury.Record, matchOutcome, error) {
	key, confidence, tier := s.resolve(record, idx)
	if tier == tierUnresolved {
		record.ResolvedPlayerKey = ""
		record.ConfidenceScore = 0
		s.logger.DebugContext(ctx, "injury unresolved",
			"injury_id", record.ID,
			"player_name", record.PlayerName,
			"error", fmt.Sprintf("%v: best score below threshold %.2f", ErrAmbiguousMatch, s.cfg.FuzzyThreshold),
		)
		return record, matchOutcome{tier: tierUnresolved}, nil
	}

	// A weaker tier never downgrades confidence already earned this run.
	if record.ResolvedPlayerKey != "" && record.ConfidenceScore > confidence {
		return record, matchOutcome{tier: tier}, nil
	}

	entry := idx.byKey[key]
	outcome := matchOutcome{tier: tier}

	record.ResolvedPlayerKey = key
	record.ConfidenceScore = confidence

	if record.Team != "" && record.Team != entry.TeamCode {
		if s.isReliableSource(entry.Player.WinningSourceID) {
			previous := record.Team
			record.Team = entry.TeamCode
			record.Notes = appendNote(record.Notes, fmt.Sprintf("team corrected %s->%s", previous, entry.TeamCode))
			outcome.teamCorrected = true

			mismatchID, err := s.idGen.NewID()
			if err != nil {
				return record, outcome, fmt.Errorf("generate mismatch id: %w", err)
			}
			outcome.mismatch = &mismatch.Record{
				ID:         mismatchID,
				PlayerName: record.PlayerName,
				RosterTeam: entry.TeamCode,
				OtherTeam:  previous,
				SourceID:   entry.Player.WinningSourceID,
				RunID:      runID,
				CreatedAt:  now,
			}
		} else {
			mismatchID, err := s.idGen.NewID()
			if err != nil {
				return record, outcome, fmt.Errorf("generate mismatch id: %w", err)
			}
			outcome.mismatch = &mismatch.Record{
				ID:         mismatchID,
				PlayerName: record.PlayerName,
				RosterTeam: entry.TeamCode,
				OtherTeam:  record.Team,
				SourceID:   entry.Player.WinningSourceID,
				RunID:      runID,
				CreatedAt:  now,
			}
		}
	} else if record.Team == "" {
		record.Team = entry.TeamCode
	}

	return record, outcome, nil
}

func (s *MatchService) resolve(record injury.Record, idx rosterIndex) (string, float64, matchTier) {
	key, err := names.Canonicalize(record.PlayerName)
	if err != nil {
		return "", 0, tierUnresolved
	}

	if _, ok := idx.byKey[key]; ok {
		return key, confidenceExact, tierExact
	}

	if matched, ok := s.resolveVariant(record, key, idx); ok {
		confidence := confidenceVariant
		if record.Team != "" && record.Team == idx.byKey[matched].TeamCode {
			confidence = confidenceVariantTeam
		}
		return matched, confidence, tierVariant
	}

	if matched, score, ok := s.resolveFuzzy(record, key, idx); ok {
		confidence := score
		if confidence > confidenceExact {
			confidence = confidenceExact
		}
		return matched, confidence, tierFuzzy
	}

	return "", 0, tierUnresolved
}

// resolveVariant looks the injury name's variants up against roster keys and
// roster variants. Several distinct roster hits mean the variant evidence is
// ambiguous, which falls through to fuzzy scoring rather than guessing.
func (s *MatchService) resolveVariant(record injury.Record, key string, idx rosterIndex) (string, bool) {
	candidates := make(map[string]struct{})

	for _, rosterKey := range idx.byVariant[key] {
		candidates[rosterKey] = struct{}{}
	}
	for _, variant := range names.Variants(record.PlayerName) {
		if _, ok := idx.byKey[variant]; ok {
			candidates[variant] = struct{}{}
		}
		for _, rosterKey := range idx.byVariant[variant] {
			candidates[rosterKey] = struct{}{}
		}
	}

	if len(candidates) == 1 {
		for rosterKey := range candidates {
			return rosterKey, true
		}
	}
	if len(candidates) > 1 && record.Team != "" {
		// Same-team candidate disambiguates a multi-hit variant.
		keys := make([]string, 0, len(candidates))
		for rosterKey := range candidates {
			if idx.byKey[rosterKey].TeamCode == record.Team {
				keys = append(keys, rosterKey)
			}
		}
		if len(keys) == 1 {
			return keys[0], true
		}
	}

	return "", false
}

func (s *MatchService) resolveFuzzy(record injury.Record, key string, idx rosterIndex) (string, float64, bool) {
	pool := idx.allKeys
	if record.Position != "" {
		if restricted, ok := idx.byPosition[strings.ToUpper(record.Position)]; ok && len(restricted) > 0 {
			pool = restricted
		}
	}

	lastName := names.LastName(record.PlayerName)
	bestKey, bestScore := "", 0.0
	for _, rosterKey := range pool {
		score := fuzzyScore(key, rosterKey, lastName)
		if score > bestScore || (score == bestScore && bestKey != "" && rosterKey < bestKey) {
			bestKey, bestScore = rosterKey, score
		}
	}

	if bestKey == "" || bestScore < s.cfg.FuzzyThreshold {
		return "", 0, false
	}
	return bestKey, bestScore, true
}

// fuzzyScore is the maximum of normalized edit-distance similarity, Jaccard
// token overlap, and a fixed floor when last names match exactly.
func fuzzyScore(candidate, rosterKey, lastName string) float64 {
	score := editSimilarity(candidate, rosterKey)
	if jaccard := tokenJaccard(candidate, rosterKey); jaccard > score {
		score = jaccard
	}
	if lastName != "" && lastName == lastToken(rosterKey) && lastNameScore > score {
		score = lastNameScore
	}
	return score
}

func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func tokenJaccard(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(tokensA))
	for _, token := range tokensA {
		setA[token] = struct{}{}
	}
	union := make(map[string]struct{}, len(tokensA)+len(tokensB))
	for token := range setA {
		union[token] = struct{}{}
	}
	intersection := 0
	for _, token := range tokensB {
		if _, ok := union[token]; !ok {
			union[token] = struct{}{}
			continue
		}
		if _, ok := setA[token]; ok {
			intersection++
			delete(setA, token)
		}
	}

	return float64(intersection) / float64(len(union))
}

func lastToken(key string) string {
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func (s *MatchService) isReliableSource(sourceID string) bool {
	_, ok := s.cfg.ReliableTeamSources[sourceID]
	return ok
}

func appendNote(notes, note string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
