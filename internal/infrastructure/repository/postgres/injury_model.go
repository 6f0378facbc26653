package postgres

import (
	"database/sql"
	"time"

	"github.com/gridironlabs/roster-engine/internal/domain/injury"
)

type injuryTableModel struct {
	ID                string         `db:"id"`
	PlayerName        string         `db:"player_name"`
	Team              string         `db:"team"`
	Position          string         `db:"position"`
	Designation       string         `db:"designation"`
	SeverityTier      int            `db:"severity_tier"`
	ConfidenceScore   float64        `db:"confidence_score"`
	ResolvedPlayerKey sql.NullString `db:"resolved_player_key"`
	IsActive          bool           `db:"is_active"`
	LastUpdated       time.Time      `db:"last_updated"`
	SourceID          string         `db:"source_id"`
	Notes             string         `db:"notes"`
}

func (m injuryTableModel) toDomain() injury.Record {
	resolved := ""
	if m.ResolvedPlayerKey.Valid {
		resolved = m.ResolvedPlayerKey.String
	}
	return injury.Record{
		ID:                m.ID,
		PlayerName:        m.PlayerName,
		Team:              m.Team,
		Position:          m.Position,
		Designation:       injury.Designation(m.Designation),
		SeverityTier:      m.SeverityTier,
		ConfidenceScore:   m.ConfidenceScore,
		ResolvedPlayerKey: resolved,
		IsActive:          m.IsActive,
		LastUpdated:       m.LastUpdated,
		SourceID:          m.SourceID,
		Notes:             m.Notes,
	}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
