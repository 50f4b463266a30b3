package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigrank/internal/adapters/http/api"
	"github.com/okian/gigrank/internal/adapters/repository"
	service "github.com/okian/gigrank/internal/app"
	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/internal/domain/scoring"
	"github.com/okian/gigrank/internal/domain/types"
	"github.com/okian/gigrank/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies records every call made by the handlers.
type mockDependencies struct {
	mu sync.Mutex

	seen      map[string]bool
	enqueueOK bool
	enqueued  []model.Event

	recs       []types.Recommendation
	recErr     error
	gotSubject string
	gotLimit   int

	result   scoring.Result
	scoreErr error
	gotInput scoring.Input

	summary types.ReputationSummary
	repErr  error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{seen: make(map[string]bool), enqueueOK: true}
}

func (m *mockDependencies) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDependencies) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDependencies) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockDependencies) Enqueue(_ context.Context, e model.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enqueueOK {
		return false
	}
	m.enqueued = append(m.enqueued, e)
	return true
}

func (m *mockDependencies) recommend(subjectID string, limit int) ([]types.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotSubject = subjectID
	m.gotLimit = limit
	if m.recErr != nil {
		return nil, m.recErr
	}
	return m.recs, nil
}

func (m *mockDependencies) RecommendJobs(_ context.Context, id string, limit int) ([]types.Recommendation, error) {
	return m.recommend(id, limit)
}

func (m *mockDependencies) RecommendCandidates(_ context.Context, id string, limit int) ([]types.Recommendation, error) {
	return m.recommend(id, limit)
}

func (m *mockDependencies) Score(_ context.Context, in scoring.Input) (scoring.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotInput = in
	return m.result, m.scoreErr
}

func (m *mockDependencies) Reputation(_ context.Context, userID string) (types.ReputationSummary, error) {
	if m.repErr != nil {
		return types.ReputationSummary{}, m.repErr
	}
	s := m.summary
	s.UserID = userID
	return s, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestMux(deps *mockDependencies, opts ...api.ServerOption) *http.ServeMux {
	stats := &mockStatsProvider{stats: map[string]interface{}{"started": true, "postings": 3}}
	mux := http.NewServeMux()
	api.NewServer(deps, stats, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

const postingBody = `{"event_id":"evt-1","posting_id":"job-1","owner_id":"client-1","title":"API work",` +
	`"category":"Backend","skills":["go","sql"],"posted_at":"2026-05-01T10:00:00Z"}`

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestMux(newMockDependencies())

		Convey("Then GET /healthz serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "gigrank_")
		})

		Convey("Then GET /stats returns the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			decodeBody(w, &stats)
			So(stats["started"], ShouldEqual, true)
			So(stats["postings"], ShouldEqual, float64(3))
		})

		Convey("Then a wrong method is rejected", func() {
			w := do(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then an unknown path is not found", func() {
			w := do(mux, http.MethodGet, "/nowhere", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestIngestHandlers(t *testing.T) {
	Convey("Given an API server with a working queue", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When a valid posting is posted", func() {
			w := do(mux, http.MethodPost, "/postings", postingBody)

			Convey("Then it is accepted and enqueued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var ack map[string]interface{}
				decodeBody(w, &ack)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["duplicate"], ShouldEqual, false)
				So(ack["event_id"], ShouldEqual, "evt-1")

				So(deps.enqueued, ShouldHaveLength, 1)
				e := deps.enqueued[0]
				So(e.Kind, ShouldEqual, model.KindPosting)
				So(e.Posting.ID, ShouldEqual, "job-1")
				So(e.Posting.Open, ShouldBeTrue)
				So(e.Posting.Skills, ShouldResemble, []string{"go", "sql"})
				So(e.Posting.PostedAt.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("And the same event id is posted again", func() {
				w2 := do(mux, http.MethodPost, "/postings", postingBody)

				Convey("Then it is acknowledged as a duplicate", func() {
					So(w2.Code, ShouldEqual, http.StatusOK)
					var ack map[string]interface{}
					decodeBody(w2, &ack)
					So(ack["duplicate"], ShouldEqual, true)
					So(deps.enqueued, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When a closed posting is posted", func() {
			body := strings.Replace(postingBody, `"title"`, `"open":false,"title"`, 1)
			w := do(mux, http.MethodPost, "/postings", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.enqueued[0].Posting.Open, ShouldBeFalse)
		})

		Convey("When the queue is full", func() {
			deps.enqueueOK = false
			w := do(mux, http.MethodPost, "/postings", postingBody)

			Convey("Then the request is rejected with 429 and the id is forgotten", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				var body map[string]string
				decodeBody(w, &body)
				So(body["code"], ShouldEqual, "backpressure")
				So(deps.Size(), ShouldEqual, int64(0))
			})
		})

		Convey("When a posting misses required fields", func() {
			w := do(mux, http.MethodPost, "/postings", `{"event_id":"evt-2","owner_id":"c"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body map[string]string
			decodeBody(w, &body)
			So(body["code"], ShouldEqual, "bad_request")
			So(body["message"], ShouldContainSubstring, "posting_id")
			So(body["message"], ShouldContainSubstring, "posted_at")
			So(deps.Size(), ShouldEqual, int64(0))
		})

		Convey("When the body carries unknown fields or bad JSON", func() {
			So(do(mux, http.MethodPost, "/postings", `{"event_id":"e","talent_id":"x"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/postings", `{not json`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/postings", postingBody+`{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a profile is posted", func() {
			body := `{"event_id":"evt-p","user_id":"dev-1","skills":["go"],"completed_categories":["Backend"],"rating":4.5}`
			w := do(mux, http.MethodPost, "/profiles", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.enqueued[0].Kind, ShouldEqual, model.KindProfile)
			So(deps.enqueued[0].Profile.Rating, ShouldEqual, 4.5)
			So(deps.enqueued[0].Profile.CompletedCategories, ShouldResemble, []string{"Backend"})
		})

		Convey("When a profile rating is out of range", func() {
			w := do(mux, http.MethodPost, "/profiles", `{"event_id":"evt-p","user_id":"dev-1","rating":6}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a review is posted", func() {
			body := `{"event_id":"evt-r","reviewer_id":"client-1","reviewee_id":"dev-1","job_id":"job-1","rating":5,"stake_weight":3}`
			w := do(mux, http.MethodPost, "/reviews", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.enqueued[0].Kind, ShouldEqual, model.KindReview)
			So(deps.enqueued[0].Review.StakeWeight, ShouldEqual, int64(3))
			So(deps.enqueued[0].Review.CreatedAt.IsZero(), ShouldBeTrue)
		})

		Convey("When a review is invalid", func() {
			self := `{"event_id":"e1","reviewer_id":"dev-1","reviewee_id":"dev-1","job_id":"j","rating":5}`
			zero := `{"event_id":"e2","reviewer_id":"c","reviewee_id":"dev-1","job_id":"j","rating":0}`
			six := `{"event_id":"e3","reviewer_id":"c","reviewee_id":"dev-1","job_id":"j","rating":6}`
			So(do(mux, http.MethodPost, "/reviews", self).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/reviews", zero).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/reviews", six).Code, ShouldEqual, http.StatusBadRequest)
			So(deps.enqueued, ShouldBeEmpty)
		})
	})
}

func TestRecommendationsHandler(t *testing.T) {
	Convey("Given an API server with canned recommendations", t, func() {
		deps := newMockDependencies()
		deps.recs = []types.Recommendation{
			{Rank: 1, ID: "job-2", Score: 0.9},
			{Rank: 2, ID: "job-1", Score: 0.4},
		}
		mux := newTestMux(deps, api.WithMaxLimit(50), api.WithDefaultLimit(10))

		Convey("When no limit is given", func() {
			w := do(mux, http.MethodGet, "/recommendations/jobs/dev-1", "")

			Convey("Then the default limit is used and results are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotSubject, ShouldEqual, "dev-1")
				So(deps.gotLimit, ShouldEqual, 10)

				var resp struct {
					SubjectID string                 `json:"subject_id"`
					Limit     int                    `json:"limit"`
					Results   []types.Recommendation `json:"results"`
				}
				decodeBody(w, &resp)
				So(resp.SubjectID, ShouldEqual, "dev-1")
				So(resp.Limit, ShouldEqual, 10)
				So(resp.Results, ShouldHaveLength, 2)
				So(resp.Results[0].ID, ShouldEqual, "job-2")
			})
		})

		Convey("When a candidate ranking is requested with a limit", func() {
			w := do(mux, http.MethodGet, "/recommendations/candidates/job-1?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotSubject, ShouldEqual, "job-1")
			So(deps.gotLimit, ShouldEqual, 5)
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-1", "51", "abc", "1.5"} {
				w := do(mux, http.MethodGet, "/recommendations/jobs/dev-1?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the subject is unknown", func() {
			deps.recErr = fmt.Errorf("freelancer %q: %w", "ghost", repository.ErrNotFound)
			w := do(mux, http.MethodGet, "/recommendations/jobs/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			var body map[string]string
			decodeBody(w, &body)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("When the service is not running", func() {
			deps.recErr = service.ErrNotStarted
			w := do(mux, http.MethodGet, "/recommendations/candidates/job-1", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the service fails unexpectedly", func() {
			deps.recErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/recommendations/candidates/job-1", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestScoreHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		deps.result = scoring.Result{Skills: 1, Category: 1, Recency: 1, Reputation: 1, Score: 1}
		mux := newTestMux(deps)

		Convey("When a full input is posted", func() {
			body := `{"candidate_skills":["Go"],"posting_skills":["go"],"posting_category":"Backend",` +
				`"completed_categories":["Backend"],"posted_at":"2026-05-01T00:00:00Z",` +
				`"now":"2026-05-02T00:00:00Z","counterpart_rating":5}`
			w := do(mux, http.MethodPost, "/score", body)

			Convey("Then the breakdown is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res scoring.Result
				decodeBody(w, &res)
				So(res.Score, ShouldEqual, 1.0)
				So(deps.gotInput.PostingCategory, ShouldEqual, "Backend")
				So(deps.gotInput.CounterpartRating, ShouldEqual, 5.0)
				So(deps.gotInput.Now.Equal(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When now is omitted", func() {
			w := do(mux, http.MethodPost, "/score", `{"posted_at":"2026-05-01T00:00:00Z"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotInput.Now.IsZero(), ShouldBeTrue)
		})

		Convey("When posted_at is missing", func() {
			w := do(mux, http.MethodPost, "/score", `{"candidate_skills":["go"]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReputationHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		deps.summary = types.ReputationSummary{AverageRating: 4.2, ReviewCount: 3, Tier: reputation.TierSilver}
		mux := newTestMux(deps)

		Convey("When a known user is requested", func() {
			w := do(mux, http.MethodGet, "/reputation/dev-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body map[string]interface{}
			decodeBody(w, &body)
			So(body["user_id"], ShouldEqual, "dev-1")
			So(body["review_count"], ShouldEqual, float64(3))
			So(body["tier"], ShouldEqual, "silver")
		})

		Convey("When the user is unknown", func() {
			deps.repErr = fmt.Errorf("user %q: %w", "ghost", repository.ErrNotFound)
			w := do(mux, http.MethodGet, "/reputation/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler wrapped with request ids", t, func() {
		var seen string
		h := api.RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}, nil)

		Convey("When the caller supplies an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.HeaderRequestID, "req-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(seen, ShouldEqual, "req-123")
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "req-123")
		})

		Convey("When no id is supplied", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			_, err := uuid.Parse(seen)
			So(err, ShouldBeNil)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, seen)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.op", api.ErrNotFound, cause)

		Convey("Then both kind and cause match", func() {
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found: cause")
		})

		Convey("Then NewKind and Wrap format sensibly", func() {
			So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: cause")
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(errors.Is(api.WrapKind("api.op", api.ErrInternal, nil), api.ErrInternal), ShouldBeTrue)
		})
	})
}
