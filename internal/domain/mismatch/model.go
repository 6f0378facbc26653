package mismatch

import "time"

// Record is a purely diagnostic row noting that an injury's stored team and
// the resolved roster team disagree. Records are regenerated in full each
// run and never hand-edited.
type Record struct {
	ID         string
	PlayerName string
	RosterTeam string
	OtherTeam  string
	SourceID   string
	RunID      string
	CreatedAt  time.Time
}
