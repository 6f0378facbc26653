package usecase

import "errors"

var (
	ErrInvalidInput              = errors.New("invalid input")
	ErrSourceUnavailable         = errors.New("source unavailable")
	ErrMalformedRecord           = errors.New("malformed record")
	ErrAmbiguousMatch            = errors.New("ambiguous match")
	ErrConflictingTeamAssignment = errors.New("conflicting team assignment")
	ErrStoreUnavailable          = errors.New("store unavailable")
)
