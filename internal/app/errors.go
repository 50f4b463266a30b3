package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidLimit   = errors.New("limit must be positive")
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrMissingPayload = errors.New("event payload missing for kind")
	ErrInvalidPosting = errors.New("invalid posting")
	ErrInvalidProfile = errors.New("invalid profile")
)
