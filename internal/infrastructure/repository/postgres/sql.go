package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// isRetryable reports whether a store error is transient lock contention
// worth a bounded retry: serialization failure, deadlock, or lock timeout.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case "40001", "40P01", "55P03":
		return true
	default:
		return false
	}
}
