// Package service wires the catalog, the ingest pipeline and the relevance
// engine into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	eventqueue "github.com/okian/gigrank/internal/adapters/mq/queue"
	workerpool "github.com/okian/gigrank/internal/adapters/mq/worker"
	"github.com/okian/gigrank/internal/adapters/repository"
	"github.com/okian/gigrank/internal/domain/dedupe"
	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/internal/domain/scoring"
	"github.com/okian/gigrank/pkg/logger"
	"github.com/okian/gigrank/pkg/metrics"
)

const stopTimeout = 10 * time.Second

// Service implements the API dependencies for the relevance system.
type Service struct {
	mu sync.RWMutex

	store   *repository.MemStore
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	scorer  scoring.Scorer
	clock   func() time.Time

	workerCount        int
	queueSize          int
	dedupeSize         int
	shardCount         int
	decayRate          int
	scoringConcurrency int

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration. Nothing runs until
// Start is called.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU() * 2,
		queueSize:          100_000,
		dedupeSize:         50_000,
		shardCount:         8,
		decayRate:          10,
		scoringConcurrency: runtime.NumCPU(),
		scorer:             scoring.NewEngine(),
		clock:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the catalog, dedupe cache, queue and workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := reputation.ValidateDecayRate(s.decayRate); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting relevance service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.store = repository.NewMemStore(runCtx, repository.WithShardCount(s.shardCount))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "relevance service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("shards", s.shardCount),
		logger.Int("decay_rate", s.decayRate),
	)
	return nil
}

// Stop drains queued events and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping relevance service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.store.Close()
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "relevance service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// SeenAndRecord reports whether id was already seen, recording it if not.
// A stopped service reports nothing as seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if !s.running() {
		return false
	}
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets id so the event can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if !s.running() {
		return
	}
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered event ids.
func (s *Service) Size() int64 {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d == nil {
		return 0
	}
	return d.Size()
}

// Enqueue hands e to the workers without blocking. It returns false on
// backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool { //nolint:gocritic // hugeParam: Event is passed by value through the queue
	if !s.running() {
		return false
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = s.clock()
	}
	return s.queue.Enqueue(ctx, e)
}

// Apply validates e and writes its payload to the catalog. Workers call it
// for every dequeued event.
func (s *Service) Apply(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event is passed by value through the queue
	err := s.apply(ctx, e)
	if err != nil {
		metrics.RecordEventRejected(string(e.Kind), rejectReason(err))
		return err
	}
	metrics.RecordEventProcessed(string(e.Kind))
	return nil
}

func (s *Service) apply(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: Event is passed by value through the queue
	switch e.Kind {
	case model.KindPosting:
		if e.Posting == nil {
			return fmt.Errorf("%w: %s", ErrMissingPayload, e.Kind)
		}
		p := *e.Posting
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.OwnerID) == "" {
			return fmt.Errorf("%w: id and owner_id are required", ErrInvalidPosting)
		}
		if p.PostedAt.IsZero() {
			p.PostedAt = e.ReceivedAt
		}
		return s.store.PutPosting(ctx, p)

	case model.KindProfile:
		if e.Profile == nil {
			return fmt.Errorf("%w: %s", ErrMissingPayload, e.Kind)
		}
		p := *e.Profile
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: id is required", ErrInvalidProfile)
		}
		if math.IsNaN(p.Rating) || p.Rating < 0 || p.Rating > scoring.MaxRating {
			return fmt.Errorf("%w: rating %v outside 0..%v", ErrInvalidProfile, p.Rating, scoring.MaxRating)
		}
		return s.store.PutProfile(ctx, p)

	case model.KindReview:
		if e.Review == nil {
			return fmt.Errorf("%w: %s", ErrMissingPayload, e.Kind)
		}
		r := *e.Review
		if err := reputation.Validate(r); err != nil {
			return err
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = e.ReceivedAt
		}
		return s.store.AddReview(ctx, r)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrAlreadyReviewed):
		return "already_reviewed"
	case errors.Is(err, reputation.ErrSelfReview):
		return "self_review"
	case errors.Is(err, reputation.ErrInvalidRating),
		errors.Is(err, reputation.ErrMissingParticipant),
		errors.Is(err, ErrInvalidPosting),
		errors.Is(err, ErrInvalidProfile),
		errors.Is(err, repository.ErrInvalidID):
		return "invalid"
	case errors.Is(err, ErrMissingPayload), errors.Is(err, ErrUnknownKind):
		return "malformed"
	default:
		return "internal"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":             s.started,
		"worker_count":        s.workerCount,
		"queue_capacity":      s.queueSize,
		"dedupe_size":         s.dedupeSize,
		"shard_count":         s.shardCount,
		"decay_rate":          s.decayRate,
		"scoring_concurrency": s.scoringConcurrency,
	}
	if !s.started {
		return stats
	}

	counts := s.store.Counts(ctx)
	stats["queue_length"] = s.queue.Len(ctx)
	stats["active_workers"] = s.pool.Active()
	stats["dedupe_entries"] = s.deduper.Size()
	stats["postings"] = counts.Postings
	stats["open_postings"] = counts.OpenPostings
	stats["profiles"] = counts.Profiles
	stats["reviews"] = counts.Reviews

	metrics.UpdateCatalogCounts(metrics.CatalogCounts{
		Postings:     counts.Postings,
		OpenPostings: counts.OpenPostings,
		Profiles:     counts.Profiles,
		Reviews:      counts.Reviews,
	})
	return stats
}
