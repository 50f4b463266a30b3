package seed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/gigrank/pkg/logger"
)

// ErrVerification marks a recommendation list that breaks ranking rules.
var ErrVerification = errors.New("recommendation verification failed")

// VerifyList checks that list holds at most limit entries with scores in
// [0,1], ordered by score descending then id ascending, ranked 1..n.
func VerifyList(list RecommendationList, limit int) error {
	if len(list.Results) > limit {
		return fmt.Errorf("%w: %s returned %d results for limit %d", ErrVerification, list.SubjectID, len(list.Results), limit)
	}
	for i, r := range list.Results {
		if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 1 {
			return fmt.Errorf("%w: %s score %v outside [0,1]", ErrVerification, r.ID, r.Score)
		}
		if r.Rank != i+1 {
			return fmt.Errorf("%w: %s has rank %d at position %d", ErrVerification, r.ID, r.Rank, i+1)
		}
		if i == 0 {
			continue
		}
		prev := list.Results[i-1]
		if prev.Score < r.Score || (prev.Score == r.Score && prev.ID >= r.ID) {
			return fmt.Errorf("%w: %s (%.4f) ranked after %s (%.4f)", ErrVerification, r.ID, r.Score, prev.ID, prev.Score)
		}
	}
	return nil
}

// verifySample fetches and checks recommendations for the first cfg.Sample
// freelancers and postings.
func verifySample(ctx context.Context, cfg *Config, c *Client, ds *Dataset, stats *Stats) error {
	log := logger.Get().Named("seed")
	log.Info(ctx, "verifying recommendations", logger.Int("sample", cfg.Sample), logger.Int("limit", cfg.Limit))

	var errs []error
	check := func(kind, id string, list RecommendationList, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", kind, id, err))
			return
		}
		if err := VerifyList(list, cfg.Limit); err != nil {
			errs = append(errs, err)
			return
		}
		stats.ListsVerified++
		if cfg.Verbose && len(list.Results) > 0 {
			top := list.Results[0]
			log.Debug(ctx, "top recommendation",
				logger.String("kind", kind),
				logger.String("subject", id),
				logger.String("id", top.ID),
				logger.Float64("score", top.Score),
			)
		}
	}

	for _, p := range ds.Profiles[:min(cfg.Sample, len(ds.Profiles))] {
		list, err := c.RecommendJobs(ctx, p.UserID, cfg.Limit)
		check("jobs", p.UserID, list, err)
	}
	for _, p := range ds.Postings[:min(cfg.Sample, len(ds.Postings))] {
		list, err := c.RecommendCandidates(ctx, p.PostingID, cfg.Limit)
		check("candidates", p.PostingID, list, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info(ctx, "recommendations verified", logger.Int("lists", stats.ListsVerified))
	return nil
}
