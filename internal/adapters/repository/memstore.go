package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/pkg/metrics"
)

const (
	defaultShardCount            = 8
	defaultMetricsUpdateInterval = 5 * time.Second
)

// shard owns the records whose id hashes to it. Reviews live on the shard of
// their reviewee.
type shard struct {
	mu       sync.RWMutex
	postings map[string]model.Posting
	profiles map[string]model.Profile
	reviews  map[string][]reputation.Review
	reviewed map[reviewKey]struct{}
}

type reviewKey struct {
	reviewee string
	reviewer string
	job      string
}

func newShard() *shard {
	return &shard{
		postings: make(map[string]model.Posting),
		profiles: make(map[string]model.Profile),
		reviews:  make(map[string][]reputation.Review),
		reviewed: make(map[reviewKey]struct{}),
	}
}

func (sh *shard) records() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.postings) + len(sh.profiles) + len(sh.reviewed)
}

// MemStore is an in-memory Store sharded by FNV-1a of the record id.
type MemStore struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemStore creates a MemStore and starts a background metrics updater
// that runs until ctx is done or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stop:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = newShard()
	}

	metrics.UpdateCatalogShardCount(s.shardCount)
	go s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))] //nolint:gosec // shard count is small and positive
}

// PutPosting inserts or replaces a posting.
func (s *MemStore) PutPosting(_ context.Context, p model.Posting) error {
	if p.ID == "" {
		return ErrInvalidID
	}
	defer observeUpdate(time.Now())

	sh := s.shardFor(p.ID)
	sh.mu.Lock()
	sh.postings[p.ID] = p.Clone()
	sh.mu.Unlock()
	return nil
}

// GetPosting returns a copy of the posting with id.
func (s *MemStore) GetPosting(_ context.Context, id string) (model.Posting, error) {
	defer observeQuery(time.Now())

	sh := s.shardFor(id)
	sh.mu.RLock()
	p, ok := sh.postings[id]
	sh.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Posting{}, ErrNotFound
	}
	return p.Clone(), nil
}

// ListOpenPostings returns copies of all open postings ordered by id.
func (s *MemStore) ListOpenPostings(ctx context.Context) ([]model.Posting, error) {
	defer observeQuery(time.Now())

	var out []model.Posting
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sh.mu.RLock()
		for _, p := range sh.postings {
			if p.Open {
				out = append(out, p.Clone())
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutProfile inserts or replaces a profile.
func (s *MemStore) PutProfile(_ context.Context, p model.Profile) error {
	if p.ID == "" {
		return ErrInvalidID
	}
	defer observeUpdate(time.Now())

	sh := s.shardFor(p.ID)
	sh.mu.Lock()
	sh.profiles[p.ID] = p.Clone()
	sh.mu.Unlock()
	return nil
}

// GetProfile returns a copy of the profile with id.
func (s *MemStore) GetProfile(_ context.Context, id string) (model.Profile, error) {
	defer observeQuery(time.Now())

	sh := s.shardFor(id)
	sh.mu.RLock()
	p, ok := sh.profiles[id]
	sh.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Profile{}, ErrNotFound
	}
	return p.Clone(), nil
}

// ListProfiles returns copies of all profiles ordered by id.
func (s *MemStore) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	defer observeQuery(time.Now())

	var out []model.Profile
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sh.mu.RLock()
		for _, p := range sh.profiles {
			out = append(out, p.Clone())
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AddReview records r against its reviewee.
func (s *MemStore) AddReview(_ context.Context, r reputation.Review) error {
	if r.RevieweeID == "" || r.ReviewerID == "" {
		return ErrInvalidID
	}
	defer observeUpdate(time.Now())

	key := reviewKey{reviewee: r.RevieweeID, reviewer: r.ReviewerID, job: r.JobID}
	sh := s.shardFor(r.RevieweeID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, dup := sh.reviewed[key]; dup {
		metrics.RecordErrorByComponent("repository", "already_reviewed")
		return ErrAlreadyReviewed
	}
	sh.reviewed[key] = struct{}{}
	sh.reviews[r.RevieweeID] = append(sh.reviews[r.RevieweeID], r)
	return nil
}

// Reviews returns a copy of the reviews received by revieweeID. An unknown
// reviewee yields an empty slice, not an error.
func (s *MemStore) Reviews(_ context.Context, revieweeID string) ([]reputation.Review, error) {
	defer observeQuery(time.Now())

	sh := s.shardFor(revieweeID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	src := sh.reviews[revieweeID]
	out := make([]reputation.Review, len(src))
	copy(out, src)
	return out, nil
}

// Counts returns catalog sizes summed over all shards.
func (s *MemStore) Counts(_ context.Context) Counts {
	var c Counts
	for _, sh := range s.shards {
		sh.mu.RLock()
		c.Postings += len(sh.postings)
		c.Profiles += len(sh.profiles)
		c.Reviews += len(sh.reviewed)
		for _, p := range sh.postings {
			if p.Open {
				c.OpenPostings++
			}
		}
		sh.mu.RUnlock()
	}
	return c
}

func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.updateMetrics(ctx)
		}
	}
}

func (s *MemStore) updateMetrics(ctx context.Context) {
	c := s.Counts(ctx)
	metrics.UpdateCatalogCounts(metrics.CatalogCounts{
		Postings:     c.Postings,
		OpenPostings: c.OpenPostings,
		Profiles:     c.Profiles,
		Reviews:      c.Reviews,
	})
	for i, sh := range s.shards {
		metrics.UpdateCatalogRecordsPerShard(strconv.Itoa(i), sh.records())
	}
}

func observeUpdate(start time.Time) {
	metrics.RecordCatalogUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeQuery(start time.Time) {
	metrics.RecordCatalogQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
