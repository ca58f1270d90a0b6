package booking

import "errors"

// Domain errors surfaced to callers. HTTP and other transports map these to
// their own status codes; nothing in the core swallows a write conflict.
var (
	// ErrSlotUnavailable means the requested window conflicts with a busy
	// interval at commit time. The caller should re-fetch availability and
	// retry with a different slot.
	ErrSlotUnavailable = errors.New("booking: slot unavailable")

	// ErrNotFound means the referenced booking does not exist.
	ErrNotFound = errors.New("booking: not found")

	// ErrInvalidState means the operation is not permitted from the
	// booking's current lifecycle state.
	ErrInvalidState = errors.New("booking: invalid state")

	// ErrValidation means the request itself is malformed (inverted window,
	// wrong duration, unknown status).
	ErrValidation = errors.New("booking: validation failed")
)
