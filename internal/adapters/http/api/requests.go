package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/internal/domain/scoring"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator() //nolint:gochecknoglobals // shared validator instance

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and flattens the result into one
// readable error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// postingRequest mirrors the OpenAPI schema for POST /postings.
type postingRequest struct {
	EventID   string     `json:"event_id" validate:"required,max=128"`
	PostingID string     `json:"posting_id" validate:"required,max=128"`
	OwnerID   string     `json:"owner_id" validate:"required,max=128"`
	Title     string     `json:"title" validate:"max=256"`
	Category  string     `json:"category" validate:"max=128"`
	Skills    []string   `json:"skills" validate:"max=256"`
	PostedAt  *time.Time `json:"posted_at" validate:"required"`
	Open      *bool      `json:"open"`
}

func (r *postingRequest) event() model.Event {
	open := true
	if r.Open != nil {
		open = *r.Open
	}
	return model.Event{
		EventID: r.EventID,
		Kind:    model.KindPosting,
		Posting: &model.Posting{
			ID:       r.PostingID,
			OwnerID:  r.OwnerID,
			Title:    r.Title,
			Category: r.Category,
			Skills:   r.Skills,
			PostedAt: *r.PostedAt,
			Open:     open,
		},
	}
}

// profileRequest mirrors the OpenAPI schema for POST /profiles.
type profileRequest struct {
	EventID             string   `json:"event_id" validate:"required,max=128"`
	UserID              string   `json:"user_id" validate:"required,max=128"`
	DisplayName         string   `json:"display_name" validate:"max=256"`
	Skills              []string `json:"skills" validate:"max=256"`
	CompletedCategories []string `json:"completed_categories" validate:"max=1024"`
	Rating              float64  `json:"rating" validate:"gte=0,lte=5"`
}

func (r *profileRequest) event() model.Event {
	return model.Event{
		EventID: r.EventID,
		Kind:    model.KindProfile,
		Profile: &model.Profile{
			ID:                  r.UserID,
			DisplayName:         r.DisplayName,
			Skills:              r.Skills,
			CompletedCategories: r.CompletedCategories,
			Rating:              r.Rating,
		},
	}
}

// reviewRequest mirrors the OpenAPI schema for POST /reviews.
type reviewRequest struct {
	EventID     string     `json:"event_id" validate:"required,max=128"`
	ReviewerID  string     `json:"reviewer_id" validate:"required,max=128"`
	RevieweeID  string     `json:"reviewee_id" validate:"required,max=128,nefield=ReviewerID"`
	JobID       string     `json:"job_id" validate:"required,max=128"`
	Rating      int        `json:"rating" validate:"min=1,max=5"`
	Comment     string     `json:"comment" validate:"max=2000"`
	StakeWeight int64      `json:"stake_weight" validate:"gte=0"`
	CreatedAt   *time.Time `json:"created_at"`
}

func (r *reviewRequest) event() model.Event {
	rev := &reputation.Review{
		ReviewerID:  r.ReviewerID,
		RevieweeID:  r.RevieweeID,
		JobID:       r.JobID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		StakeWeight: r.StakeWeight,
	}
	if r.CreatedAt != nil {
		rev.CreatedAt = *r.CreatedAt
	}
	return model.Event{EventID: r.EventID, Kind: model.KindReview, Review: rev}
}

// scoreRequest mirrors the OpenAPI schema for POST /score.
type scoreRequest struct {
	CandidateSkills     []string   `json:"candidate_skills"`
	PostingSkills       []string   `json:"posting_skills"`
	PostingCategory     string     `json:"posting_category"`
	CompletedCategories []string   `json:"completed_categories"`
	PostedAt            *time.Time `json:"posted_at" validate:"required"`
	Now                 *time.Time `json:"now"`
	CounterpartRating   float64    `json:"counterpart_rating"`
}

func (r *scoreRequest) input() scoring.Input {
	in := scoring.Input{
		CandidateSkills:     r.CandidateSkills,
		PostingSkills:       r.PostingSkills,
		PostingCategory:     r.PostingCategory,
		CompletedCategories: r.CompletedCategories,
		PostedAt:            *r.PostedAt,
		CounterpartRating:   r.CounterpartRating,
	}
	if r.Now != nil {
		in.Now = *r.Now
	}
	return in
}
