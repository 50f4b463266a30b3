package scoring

import "time"

// RecencyWindow is the age at which a posting stops contributing freshness.
const RecencyWindow = 30 * 24 * time.Hour

const hoursPerDay = 24

// Recency decays linearly from 1 for a posting created at now to 0 for a
// posting RecencyWindow old or older. A postedAt after now counts as age 0.
func Recency(postedAt, now time.Time) float64 {
	ageDays := now.Sub(postedAt).Hours() / hoursPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	windowDays := RecencyWindow.Hours() / hoursPerDay
	return clamp01(1 - ageDays/windowDays)
}
