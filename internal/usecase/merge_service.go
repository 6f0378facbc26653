package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/gridironlabs/roster-engine/internal/domain/identity"
	"github.com/gridironlabs/roster-engine/internal/domain/names"
	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

type MergeConfig struct {
	// SourcePriority maps source id to its configured trust weight.
	SourcePriority map[string]int
	// AuthoritativeSources short-circuit team voting: when any member of
	// this set asserts a team, that assertion wins outright.
	AuthoritativeSources map[string]struct{}
}

// MergeResult is the resolved identity set for one run plus merge counters.
type MergeResult struct {
	Identities   []identity.PlayerIdentity
	GroupsMerged int
}

// MergeService folds per-source observations into one identity per player.
// Rows whose canonical keys or name variants collide are grouped together,
// then each group elects a team, display name and attribute set.
type MergeService struct {
	cfg    MergeConfig
	logger *logging.Logger
}

func NewMergeService(cfg MergeConfig, logger *logging.Logger) *MergeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MergeService{cfg: cfg, logger: logger}
}

// Merge resolves identities from one run's observations. The output is a
// pure function of the input: same observations in, same identities out,
// in the same order.
func (s *MergeService) Merge(ctx context.Context, rows []observation.Raw) (MergeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MergeService.Merge")
	defer span.End()

	if len(rows) == 0 {
		return MergeResult{Identities: []identity.PlayerIdentity{}}, nil
	}

	keyed := make([]keyedObservation, 0, len(rows))
	for _, row := range rows {
		key, err := names.Canonicalize(row.RawName)
		if err != nil {
			continue
		}
		keyed = append(keyed, keyedObservation{key: key, row: row})
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		if keyed[i].key != keyed[j].key {
			return keyed[i].key < keyed[j].key
		}
		return keyed[i].row.SourceID < keyed[j].row.SourceID
	})

	uf := newUnionFind()
	for _, item := range keyed {
		uf.add(item.key)
	}

	// Two keys belong to one player when any lookup form overlaps: the
	// canonical key itself or any generated variant.
	formOwner := make(map[string]string, len(keyed)*3)
	merged := 0
	for _, item := range keyed {
		forms := append([]string{item.key}, names.Variants(item.row.RawName)...)
		for _, form := range forms {
			owner, ok := formOwner[form]
			if !ok {
				formOwner[form] = item.key
				continue
			}
			if uf.union(owner, item.key) {
				merged++
			}
		}
	}

	groups := make(map[string][]keyedObservation)
	for _, item := range keyed {
		root := uf.find(item.key)
		groups[root] = append(groups[root], item)
	}

	roots := make([]string, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	identities := make([]identity.PlayerIdentity, 0, len(groups))
	for _, root := range roots {
		resolved, err := s.resolveGroup(groups[root])
		if err != nil {
			s.logger.WarnContext(ctx, "dropped unresolvable identity group",
				"group_root", root,
				"error", err,
			)
			continue
		}
		identities = append(identities, resolved)
	}

	sort.SliceStable(identities, func(i, j int) bool {
		if identities[i].TeamCode != identities[j].TeamCode {
			return identities[i].TeamCode < identities[j].TeamCode
		}
		return identities[i].CanonicalKey < identities[j].CanonicalKey
	})

	return MergeResult{Identities: identities, GroupsMerged: merged}, nil
}

type keyedObservation struct {
	key string
	row observation.Raw
}

func (s *MergeService) resolveGroup(members []keyedObservation) (identity.PlayerIdentity, error) {
	if len(members) == 0 {
		return identity.PlayerIdentity{}, fmt.Errorf("%w: empty identity group", ErrInvalidInput)
	}

	teamCode, winningSource, priorityUsed := s.electTeam(members)
	if teamCode == "" {
		return identity.PlayerIdentity{}, fmt.Errorf("%w: no team assertion in group", ErrConflictingTeamAssignment)
	}

	displayName := ""
	displayScore := -1
	sourceSet := make(map[string]struct{}, len(members))
	for _, member := range members {
		sourceSet[member.row.SourceID] = struct{}{}
		score := names.DisplayScore(member.row.RawName)
		if score > displayScore || (score == displayScore && member.row.RawName < displayName) {
			displayName = member.row.RawName
			displayScore = score
		}
	}

	canonicalKey, err := names.Canonicalize(displayName)
	if err != nil {
		return identity.PlayerIdentity{}, fmt.Errorf("canonicalize display name %q: %w", displayName, err)
	}

	position, status := s.electAttributes(members, teamCode, winningSource)

	sourceIDs := make([]string, 0, len(sourceSet))
	for sourceID := range sourceSet {
		sourceIDs = append(sourceIDs, sourceID)
	}
	sort.Strings(sourceIDs)

	return identity.PlayerIdentity{
		CanonicalKey:       canonicalKey,
		DisplayName:        displayName,
		TeamCode:           teamCode,
		Position:           position,
		Status:             status,
		WinningSourceID:    winningSource,
		SourcePriorityUsed: priorityUsed,
		SourceIDs:          sourceIDs,
	}, nil
}

// electTeam picks the group's team. An authoritative source wins outright;
// among several authoritative assertions the higher priority wins, then the
// lexicographically smaller source id. Without an authoritative assertion
// teams are elected by priority-weighted voting, ties broken the same way.
func (s *MergeService) electTeam(members []keyedObservation) (string, string, int) {
	bestAuthTeam, bestAuthSource, bestAuthPriority := "", "", -1
	for _, member := range members {
		row := member.row
		if row.TeamCode == "" {
			continue
		}
		if _, ok := s.cfg.AuthoritativeSources[row.SourceID]; !ok {
			continue
		}
		priority := s.cfg.SourcePriority[row.SourceID]
		if priority > bestAuthPriority ||
			(priority == bestAuthPriority && row.SourceID < bestAuthSource) {
			bestAuthTeam, bestAuthSource, bestAuthPriority = row.TeamCode, row.SourceID, priority
		}
	}
	if bestAuthTeam != "" {
		return bestAuthTeam, bestAuthSource, bestAuthPriority
	}

	type vote struct {
		weight     int
		bestSource string
		bestWeight int
	}
	votes := make(map[string]*vote)
	counted := make(map[string]struct{})
	for _, member := range members {
		row := member.row
		if row.TeamCode == "" {
			continue
		}
		// One vote per source per team.
		dedupeKey := row.SourceID + "|" + row.TeamCode
		if _, ok := counted[dedupeKey]; ok {
			continue
		}
		counted[dedupeKey] = struct{}{}

		priority := s.cfg.SourcePriority[row.SourceID]
		v, ok := votes[row.TeamCode]
		if !ok {
			v = &vote{}
			votes[row.TeamCode] = v
		}
		v.weight += priority
		if priority > v.bestWeight || (priority == v.bestWeight && (v.bestSource == "" || row.SourceID < v.bestSource)) {
			v.bestWeight = priority
			v.bestSource = row.SourceID
		}
	}

	winnerTeam, winnerSource, winnerPriority := "", "", -1
	winnerWeight := -1
	teams := make([]string, 0, len(votes))
	for team := range votes {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	for _, team := range teams {
		v := votes[team]
		if v.weight > winnerWeight ||
			(v.weight == winnerWeight && v.bestWeight > winnerPriority) ||
			(v.weight == winnerWeight && v.bestWeight == winnerPriority && v.bestSource < winnerSource) {
			winnerTeam, winnerSource = team, v.bestSource
			winnerWeight, winnerPriority = v.weight, v.bestWeight
		}
	}

	return winnerTeam, winnerSource, winnerPriority
}

// electAttributes prefers position and status reported by the winning source
// for the elected team, falling back to the highest-priority row that has a
// value at all.
func (s *MergeService) electAttributes(members []keyedObservation, teamCode, winningSource string) (string, string) {
	position, status := "", ""
	bestPositionPriority, bestStatusPriority := -1, -1

	for _, member := range members {
		row := member.row
		priority := s.cfg.SourcePriority[row.SourceID]
		if row.SourceID == winningSource && row.TeamCode == teamCode {
			priority += 1000
		}
		if row.Position != "" && priority > bestPositionPriority {
			position, bestPositionPriority = row.Position, priority
		}
		if row.Status != "" && priority > bestStatusPriority {
			status, bestStatusPriority = row.Status, priority
		}
	}

	return position, status
}

// unionFind is a plain disjoint-set over canonical keys. The root of a set is
// always the lexicographically smallest member so grouping stays stable
// across runs.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(key string) {
	if _, ok := u.parent[key]; !ok {
		u.parent[key] = key
	}
}

func (u *unionFind) find(key string) string {
	root := key
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[key] != root {
		key, u.parent[key] = u.parent[key], root
	}
	return root
}

func (u *unionFind) union(a, b string) bool {
	u.add(a)
	u.add(b)
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return false
	}
	if rootB < rootA {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
	return true
}
