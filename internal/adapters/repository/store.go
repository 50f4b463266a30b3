// Package repository holds the marketplace catalog: postings, profiles and
// the reviews that feed reputation.
package repository

import (
	"context"

	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
)

// Counts is a point-in-time size of the catalog.
type Counts struct {
	Postings     int `json:"postings"`
	OpenPostings int `json:"open_postings"`
	Profiles     int `json:"profiles"`
	Reviews      int `json:"reviews"`
}

// Store provides read/write access to the catalog. Values are copied on the
// way in and on the way out, so callers never share slices with the store.
type Store interface {
	// PutPosting inserts or replaces a posting.
	PutPosting(ctx context.Context, p model.Posting) error
	// GetPosting returns ErrNotFound if the posting is unknown.
	GetPosting(ctx context.Context, id string) (model.Posting, error)
	// ListOpenPostings returns every open posting ordered by id.
	ListOpenPostings(ctx context.Context) ([]model.Posting, error)

	// PutProfile inserts or replaces a profile.
	PutProfile(ctx context.Context, p model.Profile) error
	// GetProfile returns ErrNotFound if the profile is unknown.
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	// ListProfiles returns every profile ordered by id.
	ListProfiles(ctx context.Context) ([]model.Profile, error)

	// AddReview appends a review for its reviewee. A second review by the same
	// reviewer for the same reviewee and job returns ErrAlreadyReviewed.
	AddReview(ctx context.Context, r reputation.Review) error
	// Reviews returns the reviews received by revieweeID, oldest first.
	Reviews(ctx context.Context, revieweeID string) ([]reputation.Review, error)

	// Counts returns catalog sizes.
	Counts(ctx context.Context) Counts
}
