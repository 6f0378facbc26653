package injury

import (
	"strings"
	"time"
)

// Designation is the injury status label as reported by a feed.
type Designation string

const (
	DesignationIR           Designation = "IR"
	DesignationOut          Designation = "Out"
	DesignationPUP          Designation = "PUP"
	DesignationDoubtful     Designation = "Doubtful"
	DesignationQuestionable Designation = "Questionable"
	DesignationNone         Designation = ""
)

// Severity tiers order designations for pruning and tie-breaking:
// IR/Out/PUP > Doubtful > Questionable > none. The ordering is fixed.
const (
	TierNone         = 0
	TierQuestionable = 1
	TierDoubtful     = 2
	TierSevere       = 3
)

// NormalizeDesignation maps free-form feed labels onto the fixed designation
// set. Unrecognized labels collapse to none rather than inventing a tier.
func NormalizeDesignation(raw string) Designation {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ir", "injured reserve", "injured-reserve":
		return DesignationIR
	case "out", "o":
		return DesignationOut
	case "pup", "physically unable to perform":
		return DesignationPUP
	case "doubtful", "d":
		return DesignationDoubtful
	case "questionable", "q", "probable":
		return DesignationQuestionable
	default:
		return DesignationNone
	}
}

// Tier returns the severity tier for a designation.
func (d Designation) Tier() int {
	switch d {
	case DesignationIR, DesignationOut, DesignationPUP:
		return TierSevere
	case DesignationDoubtful:
		return TierDoubtful
	case DesignationQuestionable:
		return TierQuestionable
	default:
		return TierNone
	}
}

// Record is one injury observation row. The injury harvester (an external
// collaborator) creates and overwrites these; the matcher mutates team,
// confidence and resolved key in place, and the pruner owns IsActive.
type Record struct {
	ID                string
	PlayerName        string
	Team              string
	Position          string
	Designation       Designation
	SeverityTier      int
	ConfidenceScore   float64
	ResolvedPlayerKey string
	IsActive          bool
	LastUpdated       time.Time
	SourceID          string
	Notes             string
}

// Resolved reports whether the record has been attached to a canonical
// roster identity.
func (r Record) Resolved() bool {
	return r.ResolvedPlayerKey != ""
}
