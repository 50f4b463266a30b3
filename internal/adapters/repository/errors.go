package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("record id must not be empty")
	ErrAlreadyReviewed = errors.New("reviewer already reviewed this job")
)
