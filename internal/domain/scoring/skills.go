package scoring

import "strings"

// normalizeTag case-folds a tag. Whitespace is significant and left untouched.
func normalizeTag(tag string) string {
	return strings.ToLower(tag)
}

// tagSet builds the set of normalized tags, collapsing duplicates and case variants.
func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[normalizeTag(t)] = struct{}{}
	}
	return set
}

// Jaccard returns |A ∩ B| / |A ∪ B| over the case-folded tag sets of a and b.
// Two empty sets have no similarity and yield 0.
func Jaccard(a, b []string) float64 {
	setA := tagSet(a)
	setB := tagSet(b)

	// iterate the smaller set
	small, large := setA, setB
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for tag := range small {
		if _, ok := large[tag]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
