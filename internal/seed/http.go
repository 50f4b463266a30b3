package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gigrank/pkg/logger"
)

const (
	maxRetries     = 5
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = time.Second
	reportInterval = time.Second
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeDuplicate
	outcomeFailed
)

// Client talks to the service API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

// getJSON performs a GET and decodes a 200 response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/healthz", nil)
}

func (c *Client) stats(ctx context.Context) (catalogStats, error) {
	var s catalogStats
	err := c.getJSON(ctx, "/stats", &s)
	return s, err
}

// RecommendJobs fetches the ranked postings for a freelancer.
func (c *Client) RecommendJobs(ctx context.Context, freelancerID string, limit int) (RecommendationList, error) {
	return c.recommend(ctx, "/recommendations/jobs/", freelancerID, limit)
}

// RecommendCandidates fetches the ranked freelancers for a posting.
func (c *Client) RecommendCandidates(ctx context.Context, postingID string, limit int) (RecommendationList, error) {
	return c.recommend(ctx, "/recommendations/candidates/", postingID, limit)
}

func (c *Client) recommend(ctx context.Context, prefix, id string, limit int) (RecommendationList, error) {
	var list RecommendationList
	path := prefix + url.PathEscape(id) + "?limit=" + strconv.Itoa(limit)
	err := c.getJSON(ctx, path, &list)
	return list, err
}

// post submits one ingestion body, retrying with backoff while the service
// reports backpressure.
func (c *Client) post(ctx context.Context, path string, body any) (outcome, int) {
	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		resp, err := c.do(ctx, http.MethodPost, path, body)
		if err != nil {
			return outcomeFailed, attempt
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusAccepted:
			return outcomeAccepted, attempt
		case http.StatusOK:
			return outcomeDuplicate, attempt
		case http.StatusTooManyRequests:
			if attempt == maxRetries {
				return outcomeFailed, attempt
			}
			select {
			case <-ctx.Done():
				return outcomeFailed, attempt
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		default:
			return outcomeFailed, attempt
		}
	}
}

// submitAll posts items to path with cfg.Workers concurrent submitters.
func submitAll[T any](ctx context.Context, cfg *Config, c *Client, path string, items []T, stats *Stats) {
	log := logger.Get().Named("seed")
	log.Info(ctx, "submitting", logger.String("path", path), logger.Int("count", len(items)), logger.Int("workers", cfg.Workers))

	var submitted, accepted, duplicate, retried, failed atomic.Int64
	var lastReport atomic.Int64
	lastReport.Store(time.Now().UnixNano())

	ch := make(chan T, cfg.Workers*2)
	var wg sync.WaitGroup
	for range max(1, cfg.Workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				res, retries := c.post(ctx, path, item)
				submitted.Add(1)
				retried.Add(int64(retries))
				switch res {
				case outcomeAccepted:
					accepted.Add(1)
				case outcomeDuplicate:
					duplicate.Add(1)
				case outcomeFailed:
					failed.Add(1)
				}

				last := lastReport.Load()
				if cfg.Verbose && time.Since(time.Unix(0, last)) >= reportInterval &&
					lastReport.CompareAndSwap(last, time.Now().UnixNano()) {
					log.Debug(ctx, "progress",
						logger.String("path", path),
						logger.Int64("submitted", submitted.Load()),
						logger.Int("total", len(items)),
						logger.Int64("failed", failed.Load()),
					)
				}
			}
		}()
	}

	func() {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	wg.Wait()

	stats.EventsSubmitted += int(submitted.Load())
	stats.EventsSuccessful += int(accepted.Load())
	stats.EventsDuplicate += int(duplicate.Load())
	stats.EventsRetried += int(retried.Load())
	stats.EventsFailed += int(failed.Load())

	log.Info(ctx, "submission completed",
		logger.String("path", path),
		logger.Int64("accepted", accepted.Load()),
		logger.Int64("duplicate", duplicate.Load()),
		logger.Int64("retried", retried.Load()),
		logger.Int64("failed", failed.Load()),
	)
}
