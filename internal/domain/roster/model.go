package roster

import (
	"github.com/gridironlabs/roster-engine/internal/domain/identity"
)

// DefaultCap is the NFL active-roster ceiling enforced per team unless the
// excess entries carry an active injury.
const DefaultCap = 53

// Entry is one member of the capped roster set for a team.
type Entry struct {
	TeamCode string
	Player   identity.PlayerIdentity
	// RankScore is the composite keep score computed by the capper; higher
	// scores survive the cap.
	RankScore float64
	// InjuryOverride marks entries kept beyond the cap because the player
	// has at least one currently-active injury.
	InjuryOverride bool
}
