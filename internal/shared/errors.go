package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Request-shape errors, surfaced synchronously to the caller
	ErrInvalidRequest = fmt.Errorf("invalid request")

	// Job lifecycle errors
	ErrJobNotFound  = fmt.Errorf("job not found")
	ErrInvalidState = fmt.Errorf("job is not in a compatible state")

	// Tracklist resolution exhausted every fallback
	ErrTracklistNotFound = fmt.Errorf("tracklist not found")

	// Tag rewrite failed; recorded in the job, never raised to the caller
	ErrTaggingFailed = fmt.Errorf("tagging failed")

	// External tool errors
	ErrToolNotFound = fmt.Errorf("external tool not found")
	ErrTimeout      = fmt.Errorf("operation timed out")
)
