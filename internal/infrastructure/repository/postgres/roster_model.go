package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/gridironlabs/roster-engine/internal/domain/identity"
	"github.com/gridironlabs/roster-engine/internal/domain/roster"
)

type rosterTableModel struct {
	ID              int64          `db:"id"`
	TeamCode        string         `db:"team_code"`
	CanonicalKey    string         `db:"canonical_key"`
	DisplayName     string         `db:"display_name"`
	Position        string         `db:"position"`
	Status          string         `db:"status"`
	WinningSourceID string         `db:"winning_source_id"`
	SourcePriority  int            `db:"source_priority_used"`
	SourceIDs       pq.StringArray `db:"source_ids"`
	RankScore       float64        `db:"rank_score"`
	InjuryOverride  bool           `db:"injury_override"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

type rosterInsertModel struct {
	TeamCode        string         `db:"team_code"`
	CanonicalKey    string         `db:"canonical_key"`
	DisplayName     string         `db:"display_name"`
	Position        string         `db:"position"`
	Status          string         `db:"status"`
	WinningSourceID string         `db:"winning_source_id"`
	SourcePriority  int            `db:"source_priority_used"`
	SourceIDs       pq.StringArray `db:"source_ids"`
	RankScore       float64        `db:"rank_score"`
	InjuryOverride  bool           `db:"injury_override"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (m rosterTableModel) toDomain() roster.Entry {
	return roster.Entry{
		TeamCode: m.TeamCode,
		Player: identity.PlayerIdentity{
			CanonicalKey:       m.CanonicalKey,
			DisplayName:        m.DisplayName,
			TeamCode:           m.TeamCode,
			Position:           m.Position,
			Status:             m.Status,
			WinningSourceID:    m.WinningSourceID,
			SourcePriorityUsed: m.SourcePriority,
			SourceIDs:          append([]string(nil), m.SourceIDs...),
		},
		RankScore:      m.RankScore,
		InjuryOverride: m.InjuryOverride,
	}
}
