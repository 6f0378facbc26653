package observation

import "time"

// Raw is one player-team fact reported by a single feed. Raw rows are
// consumed once per pipeline run and never persisted themselves; the
// harvest stage validates them at the adapter boundary and drops anything
// that fails as malformed.
type Raw struct {
	RawName    string    `validate:"required,min=2"`
	TeamCode   string    `validate:"required,min=2,max=4"`
	Position   string    `validate:"omitempty,max=8"`
	Status     string    `validate:"omitempty,max=32"`
	SourceID   string    `validate:"required"`
	ObservedAt time.Time `validate:"required"`
}

// Activity marks a player as seen in current-season game data. The roster
// capper treats activity presence as a strong keep signal.
type Activity struct {
	RawName  string `validate:"required,min=2"`
	TeamCode string `validate:"omitempty,min=2,max=4"`
	Week     int    `validate:"gte=0"`
	SourceID string `validate:"required"`
}
