package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
)

func newTestStore(t *testing.T, opts ...Option) *MemStore {
	t.Helper()
	s := NewMemStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemStore_Postings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.GetPosting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	posted := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	in := model.Posting{ID: "job-1", OwnerID: "client-1", Category: "Design", Skills: []string{"figma"}, PostedAt: posted, Open: true}
	if err := store.PutPosting(ctx, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	in.Skills[0] = "changed"

	got, err := store.GetPosting(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Skills[0] != "figma" {
		t.Errorf("expected stored skill figma, got %q", got.Skills[0])
	}
	if !got.PostedAt.Equal(posted) || got.OwnerID != "client-1" {
		t.Errorf("unexpected posting: %+v", got)
	}

	// Mutating a returned slice must not leak either.
	got.Skills[0] = "changed"
	again, _ := store.GetPosting(ctx, "job-1")
	if again.Skills[0] != "figma" {
		t.Errorf("returned slice aliases store state")
	}

	if err := store.PutPosting(ctx, model.Posting{}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestMemStore_ListOpenPostings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShardCount(4))

	for i := 9; i >= 0; i-- {
		p := model.Posting{ID: fmt.Sprintf("job-%d", i), Open: i%2 == 0}
		if err := store.PutPosting(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	open, err := store.ListOpenPostings(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 5 {
		t.Fatalf("expected 5 open postings, got %d", len(open))
	}
	for i := 1; i < len(open); i++ {
		if open[i-1].ID >= open[i].ID {
			t.Errorf("postings not ordered by id: %s before %s", open[i-1].ID, open[i].ID)
		}
		if !open[i].Open {
			t.Errorf("closed posting %s listed", open[i].ID)
		}
	}

	// Closing a posting removes it from the open list.
	if err := store.PutPosting(ctx, model.Posting{ID: "job-0", Open: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, _ = store.ListOpenPostings(ctx)
	if len(open) != 4 {
		t.Errorf("expected 4 open postings after close, got %d", len(open))
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.ListOpenPostings(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemStore_Profiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.GetProfile(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for _, id := range []string{"c", "a", "b"} {
		p := model.Profile{ID: id, Skills: []string{"go"}, CompletedCategories: []string{"Backend"}, Rating: 4}
		if err := store.PutProfile(ctx, p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := store.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("unexpected profile order: %+v", all)
	}

	// Replace keeps one record per id.
	if err := store.PutProfile(ctx, model.Profile{ID: "a", Rating: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := store.GetProfile(ctx, "a")
	if p.Rating != 2 || len(p.Skills) != 0 {
		t.Errorf("expected replaced profile, got %+v", p)
	}
	if c := store.Counts(ctx); c.Profiles != 3 {
		t.Errorf("expected 3 profiles, got %d", c.Profiles)
	}
}

func TestMemStore_Reviews(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r := reputation.Review{ReviewerID: "client-1", RevieweeID: "dev-1", JobID: "job-1", Rating: 5, CreatedAt: time.Now()}
	if err := store.AddReview(ctx, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddReview(ctx, r); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}

	// Same reviewer, different job is allowed.
	r.JobID = "job-2"
	r.Rating = 3
	if err := store.AddReview(ctx, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Reviews(ctx, "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].JobID != "job-1" || got[1].JobID != "job-2" {
		t.Errorf("unexpected reviews: %+v", got)
	}

	none, err := store.Reviews(ctx, "dev-2")
	if err != nil || len(none) != 0 {
		t.Errorf("expected no reviews, got %v %v", none, err)
	}

	if err := store.AddReview(ctx, reputation.Review{ReviewerID: "x"}); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestMemStore_Counts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShardCount(3), WithMetricsUpdateInterval(10*time.Millisecond))

	_ = store.PutPosting(ctx, model.Posting{ID: "p1", Open: true})
	_ = store.PutPosting(ctx, model.Posting{ID: "p2"})
	_ = store.PutProfile(ctx, model.Profile{ID: "u1"})
	_ = store.AddReview(ctx, reputation.Review{ReviewerID: "u2", RevieweeID: "u1", JobID: "p1", Rating: 4})

	want := Counts{Postings: 2, OpenPostings: 1, Profiles: 1, Reviews: 1}
	if got := store.Counts(ctx); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Let the metrics updater tick at least once.
	time.Sleep(30 * time.Millisecond)
	if err := store.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestMemStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShardCount(16))

	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				_ = store.PutPosting(ctx, model.Posting{ID: id, Open: true})
				_ = store.PutProfile(ctx, model.Profile{ID: id})
				_, _ = store.ListOpenPostings(ctx)
			}
		}(w)
	}
	wg.Wait()

	c := store.Counts(ctx)
	if c.Postings != writers*perWriter || c.Profiles != writers*perWriter {
		t.Errorf("unexpected counts after concurrent writes: %+v", c)
	}
}

func BenchmarkMemStore_ListOpenPostings(b *testing.B) {
	ctx := context.Background()
	store := NewMemStore(ctx)
	defer func() { _ = store.Close() }()
	for i := 0; i < 10_000; i++ {
		_ = store.PutPosting(ctx, model.Posting{ID: fmt.Sprintf("job-%05d", i), Skills: []string{"go", "sql"}, Open: true})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.ListOpenPostings(ctx)
	}
}
