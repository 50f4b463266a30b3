// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"time"

	"github.com/okian/gigrank/internal/domain/reputation"
)

// Posting is a job offered by a client.
type Posting struct {
	ID       string
	OwnerID  string // client who posted the job
	Title    string
	Category string
	Skills   []string
	PostedAt time.Time
	Open     bool // only open postings are recommended
}

// Clone returns a deep copy of p.
func (p Posting) Clone() Posting {
	p.Skills = slices.Clone(p.Skills)
	return p
}

// Profile describes a marketplace user as a candidate for work.
type Profile struct {
	ID                  string
	DisplayName         string
	Skills              []string
	CompletedCategories []string
	// Rating is the externally supplied average used while the user has no
	// reviews recorded here. Zero means unrated.
	Rating float64
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	p.Skills = slices.Clone(p.Skills)
	p.CompletedCategories = slices.Clone(p.CompletedCategories)
	return p
}

// EventKind identifies the payload an Event carries.
type EventKind string

// Supported event kinds.
const (
	KindPosting EventKind = "posting"
	KindProfile EventKind = "profile"
	KindReview  EventKind = "review"
)

// Event is an ingestion request flowing from the API through the queue to the
// workers. Exactly one payload matching Kind is set.
type Event struct {
	EventID    string // unique id for idempotency
	Kind       EventKind
	Posting    *Posting
	Profile    *Profile
	Review     *reputation.Review
	ReceivedAt time.Time
}

// SubjectID returns the id of the entity the event writes.
func (e Event) SubjectID() string {
	switch e.Kind {
	case KindPosting:
		if e.Posting != nil {
			return e.Posting.ID
		}
	case KindProfile:
		if e.Profile != nil {
			return e.Profile.ID
		}
	case KindReview:
		if e.Review != nil {
			return e.Review.RevieweeID
		}
	}
	return ""
}
