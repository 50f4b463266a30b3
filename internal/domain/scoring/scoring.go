// Package scoring computes the relevance of a posting to a candidate profile.
//
// Four independent sub-scores, each in [0,1], are combined by a fixed weighted
// sum. Every function in this package is pure: the evaluation instant is passed
// in by the caller and inputs are never mutated, so results are reproducible and
// safe to compute concurrently.
package scoring

import (
	"context"
	"fmt"
	"time"
)

// Fixed relevance weights. They sum to 1.0, which bounds Compute to [0,1].
const (
	SkillWeight      = 0.50
	CategoryWeight   = 0.25
	RecencyWeight    = 0.15
	ReputationWeight = 0.10
)

// Input groups everything needed to score one (candidate, posting) pair.
type Input struct {
	CandidateSkills     []string  `json:"candidate_skills" yaml:"candidate_skills"`
	PostingSkills       []string  `json:"posting_skills" yaml:"posting_skills"`
	PostingCategory     string    `json:"posting_category" yaml:"posting_category"`
	CompletedCategories []string  `json:"completed_categories" yaml:"completed_categories"`
	PostedAt            time.Time `json:"posted_at" yaml:"posted_at"`
	Now                 time.Time `json:"now" yaml:"now"`
	CounterpartRating   float64   `json:"counterpart_rating" yaml:"counterpart_rating"`
}

// Result carries the sub-scores alongside the weighted total.
type Result struct {
	Skills     float64 `json:"skills"`
	Category   float64 `json:"category"`
	Recency    float64 `json:"recency"`
	Reputation float64 `json:"reputation"`
	Score      float64 `json:"score"`
}

// Compute returns the weighted relevance score for in.
func Compute(in Input) float64 {
	return Breakdown(in).Score
}

// Breakdown evaluates each sub-score and their weighted sum.
func Breakdown(in Input) Result {
	r := Result{
		Skills:     Jaccard(in.CandidateSkills, in.PostingSkills),
		Category:   CategoryAffinity(in.PostingCategory, in.CompletedCategories),
		Recency:    Recency(in.PostedAt, in.Now),
		Reputation: Reputation(in.CounterpartRating),
	}
	r.Score = SkillWeight*r.Skills +
		CategoryWeight*r.Category +
		RecencyWeight*r.Recency +
		ReputationWeight*r.Reputation
	return r
}

// Scorer computes relevance for an input, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Engine is the default Scorer. The zero value is ready to use.
type Engine struct{}

// NewEngine returns an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score returns the breakdown for in unless ctx is already done.
func (e *Engine) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return Breakdown(in), nil
}
