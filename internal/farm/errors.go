package farm

import "errors"

var (
	// ErrValidation is returned for malformed input: an unknown mode value,
	// a non-positive duration, a job spec without weekdays, an unknown
	// threshold key, or an invalid irrigation state transition. State is
	// never changed when a validation error is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a job id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks a weather collaborator failure. It is recovered
	// locally with a fallback snapshot and never surfaced to API callers.
	ErrUnavailable = errors.New("unavailable")

	// ErrPersistence marks a failed threshold save. The in-memory update is
	// kept; callers are told the change is applied but not yet durable.
	ErrPersistence = errors.New("persistence failed")
)
