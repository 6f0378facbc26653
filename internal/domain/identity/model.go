package identity

import "fmt"

// PlayerIdentity is the resolved entity produced by the merge stage: one row
// per canonical key, rebuilt in full on every pipeline run and superseded
// wholesale by the next run's output.
type PlayerIdentity struct {
	CanonicalKey       string
	DisplayName        string
	TeamCode           string
	Position           string
	Status             string
	WinningSourceID    string
	SourcePriorityUsed int
	SourceIDs          []string
}

func (p PlayerIdentity) Validate() error {
	if p.CanonicalKey == "" {
		return fmt.Errorf("identity canonical key is required")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("identity display name is required")
	}
	if p.TeamCode == "" {
		return fmt.Errorf("identity team code is required")
	}
	if p.WinningSourceID == "" {
		return fmt.Errorf("identity winning source id is required")
	}
	return nil
}
