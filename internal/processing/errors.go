package processing

import "errors"

// Caller errors. None of these are retried internally; retry policy belongs
// to the caller, which must account for non-idempotent re-ingestion.
var (
	// ErrInvalidIdentifier marks a malformed robot id.
	ErrInvalidIdentifier = errors.New("invalid robot identifier")
	// ErrNotFound marks a well-formed robot id absent from the organization.
	ErrNotFound = errors.New("robot not found")
	// ErrNoValidMetrics marks a payload that parsed but produced zero
	// extractable metrics.
	ErrNoValidMetrics = errors.New("no valid metrics in payload")
	// ErrValidation marks missing or malformed request parameters.
	ErrValidation = errors.New("validation error")
)
