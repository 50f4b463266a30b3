package scoring

// CategoryAffinity reports 1 when jobCategory matches any completed category
// case-insensitively and 0 otherwise. Repeated matches do not raise the score.
func CategoryAffinity(jobCategory string, completed []string) float64 {
	want := normalizeTag(jobCategory)
	for _, c := range completed {
		if normalizeTag(c) == want {
			return 1
		}
	}
	return 0
}
