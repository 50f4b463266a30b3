// Package reputation aggregates reviews into the average rating consumed by
// relevance scoring.
//
// Each review carries a stake weight. Weights decay linearly with review age at
// a yearly percentage rate, so stale reviews lose influence until they stop
// counting altogether.
package reputation

import (
	"math"
	"sort"
	"time"
)

// Rating bounds accepted for a single review.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxDecayRate is the largest yearly decay percentage.
const MaxDecayRate = 100

const (
	oneYear        = 365 * 24 * time.Hour
	percent        = 100
	tierScale      = 100
	bronzeFloor    = 100
	silverFloor    = 300
	goldFloor      = 500
	platinumFloor  = 700
	defaultStaking = 1
)

// Review is a single rating left by one party of a completed job for the other.
type Review struct {
	ReviewerID  string    `json:"reviewer_id"`
	RevieweeID  string    `json:"reviewee_id"`
	JobID       string    `json:"job_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	StakeWeight int64     `json:"stake_weight"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the review in isolation. Duplicate detection is up to the store.
func Validate(r Review) error {
	switch {
	case r.ReviewerID == "" || r.RevieweeID == "":
		return ErrMissingParticipant
	case r.Rating < MinRating || r.Rating > MaxRating:
		return ErrInvalidRating
	case r.ReviewerID == r.RevieweeID:
		return ErrSelfReview
	}
	return nil
}

// ValidateDecayRate checks a yearly decay percentage.
func ValidateDecayRate(rate int) error {
	if rate < 0 || rate > MaxDecayRate {
		return ErrInvalidDecayRate
	}
	return nil
}

// EffectiveWeight returns the review's stake weight after time decay at now.
// Non-positive stakes count as 1. A review dated after now has age zero.
func EffectiveWeight(r Review, decayRate int, now time.Time) int64 {
	base := r.StakeWeight
	if base <= 0 {
		base = defaultStaking
	}
	if decayRate <= 0 {
		return base
	}

	age := now.Sub(r.CreatedAt)
	if age < 0 {
		age = 0
	}
	decay := int64(decayRate) * int64(age/time.Second) / int64(oneYear/time.Second)
	factor := percent - decay
	if factor <= 0 {
		return 0
	}
	if base > math.MaxInt64/percent {
		return base / percent * factor
	}
	return base * factor / percent
}

// AverageRating returns the weighted mean rating on the 1..5 scale, or 0 when
// there are no reviews or every review has fully decayed.
func AverageRating(reviews []Review, decayRate int, now time.Time) float64 {
	var totalScore, totalWeight float64
	for _, r := range reviews {
		w := EffectiveWeight(r, decayRate, now)
		if w <= 0 {
			continue
		}
		totalScore += float64(r.Rating) * float64(w)
		totalWeight += float64(w)
	}
	if totalWeight == 0 {
		return 0
	}
	return totalScore / totalWeight
}

// Tier is a reputation badge level.
type Tier int

// Tier levels, lowest first.
const (
	TierNone Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

func (t Tier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return "none"
	}
}

// MarshalText renders the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TierFor maps an average rating to its tier. Thresholds apply to the rating
// scaled by 100, so a perfect 5.0 lands on Gold.
func TierFor(avg float64) Tier {
	scaled := int64(avg * tierScale)
	switch {
	case scaled >= platinumFloor:
		return TierPlatinum
	case scaled >= goldFloor:
		return TierGold
	case scaled >= silverFloor:
		return TierSilver
	case scaled >= bronzeFloor:
		return TierBronze
	default:
		return TierNone
	}
}

// Summary is the aggregate view of one user's reviews.
type Summary struct {
	UserID        string  `json:"user_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	Tier          Tier    `json:"tier"`
	Badges        []Badge `json:"badges"`
}

// Badge records the first time a user reached a tier. Badges are never
// revoked when the average later drops.
type Badge struct {
	Tier      Tier      `json:"tier"`
	AwardedAt time.Time `json:"awarded_at"`
}

// Badges replays reviews in CreatedAt order and awards a badge each time the
// running average lands on a tier not reached before. Each step is evaluated
// at the moment its review was left.
func Badges(reviews []Review, decayRate int) []Badge {
	ordered := make([]Review, len(reviews))
	copy(ordered, reviews)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	badges := []Badge{}
	seen := make(map[Tier]bool)
	for i, r := range ordered {
		tier := TierFor(AverageRating(ordered[:i+1], decayRate, r.CreatedAt))
		if tier == TierNone || seen[tier] {
			continue
		}
		seen[tier] = true
		badges = append(badges, Badge{Tier: tier, AwardedAt: r.CreatedAt})
	}
	return badges
}

// Summarize builds the Summary for userID from its reviews.
func Summarize(userID string, reviews []Review, decayRate int, now time.Time) Summary {
	avg := AverageRating(reviews, decayRate, now)
	return Summary{
		UserID:        userID,
		AverageRating: avg,
		ReviewCount:   len(reviews),
		Tier:          TierFor(avg),
		Badges:        Badges(reviews, decayRate),
	}
}
