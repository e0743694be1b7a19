package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures, e.g. a missing required variable.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrNilPointer    = errors.New("nil pointer provided to config loader")
)
