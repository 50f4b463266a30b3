package reputation

import "errors"

// Sentinel kinds for review validation.
var (
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrSelfReview         = errors.New("reviewer and reviewee must differ")
	ErrMissingParticipant = errors.New("reviewer and reviewee are required")
	ErrInvalidDecayRate   = errors.New("decay rate must be between 0 and 100")
)
