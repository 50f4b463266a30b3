package service

import (
	"time"

	"github.com/okian/gigrank/internal/domain/scoring"
	"github.com/okian/gigrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the ingest queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero or less
// keeps every event id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithShardCount sets the number of catalog shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithDecayRate sets the yearly review decay in percent.
func WithDecayRate(rate int) Option {
	return func(s *Service) {
		s.decayRate = rate
	}
}

// WithScoringConcurrency bounds parallel scoring within one request.
func WithScoringConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scoringConcurrency = n
		}
	}
}

// WithClock replaces the wall clock used for "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithScorer replaces the relevance scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
