package workflow

import "errors"

var (
	// ErrAlreadyResolved is returned when an approval action targets a
	// request that is no longer pending. It indicates a stale approval id
	// on the caller's side, not a validation problem.
	ErrAlreadyResolved = errors.New("approval request already resolved")

	// ErrEmptyReason is returned when a rejection carries no reason
	ErrEmptyReason = errors.New("rejection requires a non-empty reason")

	// ErrConflict is returned when a concurrent actor finalized the
	// request between read and write
	ErrConflict = errors.New("approval request modified concurrently")

	// ErrNotFound is returned when no approval request exists for the id
	ErrNotFound = errors.New("approval request not found")
)
