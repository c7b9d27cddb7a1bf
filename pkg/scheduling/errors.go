package scheduling

import "errors"

var (
	// ErrInvalidRequest is returned for malformed input: non-positive durations, inverted windows,
	// missing task fields.
	ErrInvalidRequest = errors.New("invalid scheduling request")
	// ErrNoSlotAvailable is returned when a task fits neither its preferred day nor the day after.
	ErrNoSlotAvailable = errors.New("no suitable time slot available")
	// ErrNoAlternativeAvailable is returned when a conflicting placement has no free replacement on its day.
	ErrNoAlternativeAvailable = errors.New("no alternative time slot available")
)
