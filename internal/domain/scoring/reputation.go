package scoring

import "math"

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

// Reputation maps a 0..5 average rating onto [0,1]. Out-of-range ratings are
// clamped before dividing; NaN is treated as unrated.
func Reputation(rating float64) float64 {
	if math.IsNaN(rating) {
		return 0
	}
	return math.Max(0, math.Min(MaxRating, rating)) / MaxRating
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
