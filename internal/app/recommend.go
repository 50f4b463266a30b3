package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gigrank/internal/adapters/repository"
	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/internal/domain/scoring"
	"github.com/okian/gigrank/internal/domain/types"
	"github.com/okian/gigrank/pkg/logger"
	"github.com/okian/gigrank/pkg/metrics"
)

// Recommendation directions, also used as metric labels.
const (
	kindJobs       = "jobs"
	kindCandidates = "candidates"
)

// candidate pairs an id to rank with the input that scores it.
type candidate struct {
	id    string
	input scoring.Input
}

// RecommendJobs ranks the open postings for freelancerID. Postings owned by
// the freelancer are skipped. The counterpart rating is the posting owner's.
func (s *Service) RecommendJobs(ctx context.Context, freelancerID string, limit int) ([]types.Recommendation, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()

	profile, err := s.store.GetProfile(ctx, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("freelancer %q: %w", freelancerID, err)
	}
	postings, err := s.store.ListOpenPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	now := s.clock()
	ownerRatings := make(map[string]float64)
	cands := make([]candidate, 0, len(postings))
	for _, p := range postings {
		if p.OwnerID == freelancerID {
			continue
		}
		rating, ok := ownerRatings[p.OwnerID]
		if !ok {
			if rating, err = s.ratingOf(ctx, p.OwnerID, now); err != nil {
				return nil, err
			}
			ownerRatings[p.OwnerID] = rating
		}
		cands = append(cands, candidate{id: p.ID, input: pairInput(profile, p, now, rating)})
	}

	recs, err := s.rank(ctx, cands, limit)
	if err != nil {
		return nil, err
	}
	s.observe(ctx, kindJobs, freelancerID, start, len(cands), recs)
	return recs, nil
}

// RecommendCandidates ranks every profile except the posting owner for
// postingID. The counterpart rating is the candidate's own.
func (s *Service) RecommendCandidates(ctx context.Context, postingID string, limit int) ([]types.Recommendation, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()

	posting, err := s.store.GetPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("posting %q: %w", postingID, err)
	}
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	now := s.clock()
	cands := make([]candidate, 0, len(profiles))
	for _, p := range profiles {
		if p.ID == posting.OwnerID {
			continue
		}
		rating, err := s.ratingFor(ctx, p, now)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{id: p.ID, input: pairInput(p, posting, now, rating)})
	}

	recs, err := s.rank(ctx, cands, limit)
	if err != nil {
		return nil, err
	}
	s.observe(ctx, kindCandidates, postingID, start, len(cands), recs)
	return recs, nil
}

// Score evaluates a single relevance input. A zero Now is replaced by the
// service clock.
func (s *Service) Score(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	if in.Now.IsZero() {
		in.Now = s.clock()
	}
	res, err := s.scorer.Score(ctx, in)
	if err != nil {
		metrics.RecordScoringError()
		return scoring.Result{}, err
	}
	metrics.RecordScore(res.Score)
	return res, nil
}

// Reputation summarizes the reviews received by userID. Users with neither
// reviews nor a profile are reported as not found.
func (s *Service) Reputation(ctx context.Context, userID string) (types.ReputationSummary, error) {
	if !s.running() {
		return types.ReputationSummary{}, ErrNotStarted
	}
	reviews, err := s.store.Reviews(ctx, userID)
	if err != nil {
		return types.ReputationSummary{}, err
	}
	if len(reviews) == 0 {
		if _, err := s.store.GetProfile(ctx, userID); err != nil {
			return types.ReputationSummary{}, fmt.Errorf("user %q: %w", userID, err)
		}
	}
	return reputation.Summarize(userID, reviews, s.decayRate, s.clock()), nil
}

func pairInput(cand model.Profile, p model.Posting, now time.Time, rating float64) scoring.Input { //nolint:gocritic // hugeParam: read-only copies
	return scoring.Input{
		CandidateSkills:     cand.Skills,
		PostingSkills:       p.Skills,
		PostingCategory:     p.Category,
		CompletedCategories: cand.CompletedCategories,
		PostedAt:            p.PostedAt,
		Now:                 now,
		CounterpartRating:   rating,
	}
}

// ratingOf resolves the rating of userID, loading the profile for the
// fallback when the user has no reviews.
func (s *Service) ratingOf(ctx context.Context, userID string, now time.Time) (float64, error) {
	reviews, err := s.store.Reviews(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(reviews) > 0 {
		return reputation.AverageRating(reviews, s.decayRate, now), nil
	}
	profile, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return 0, nil // unknown owners count as unrated
	case err != nil:
		return 0, err
	}
	return profile.Rating, nil
}

// ratingFor is ratingOf for a profile already in hand.
func (s *Service) ratingFor(ctx context.Context, p model.Profile, now time.Time) (float64, error) { //nolint:gocritic // hugeParam: read-only copy
	reviews, err := s.store.Reviews(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	if len(reviews) > 0 {
		return reputation.AverageRating(reviews, s.decayRate, now), nil
	}
	return p.Rating, nil
}

// rank scores cands in parallel chunks bounded by the scoring concurrency,
// then sorts and truncates the results.
func (s *Service) rank(ctx context.Context, cands []candidate, limit int) ([]types.Recommendation, error) {
	recs := make([]types.Recommendation, len(cands))
	if len(cands) == 0 {
		return recs, nil
	}

	workers := min(s.scoringConcurrency, len(cands))
	chunk := (len(cands) + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(cands); lo += chunk {
		hi := min(lo+chunk, len(cands))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				res, err := s.scorer.Score(gCtx, cands[i].input)
				if err != nil {
					metrics.RecordScoringError()
					return fmt.Errorf("score %s: %w", cands[i].id, err)
				}
				metrics.RecordScore(res.Score)
				recs[i] = types.Recommendation{ID: cands[i].id, Score: res.Score, Breakdown: res}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return types.Rank(recs, limit), nil
}

func (s *Service) observe(ctx context.Context, kind, subject string, start time.Time, scored int, recs []types.Recommendation) {
	elapsed := time.Since(start)
	metrics.RecordRecommendation(kind, float64(elapsed.Microseconds())/1000, len(recs))
	s.logger.Debug(ctx, "recommendations computed",
		logger.String("kind", kind),
		logger.String("subject", subject),
		logger.Int("scored", scored),
		logger.Int("returned", len(recs)),
		logger.Duration("elapsed", elapsed),
	)
}
