// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gigrank/internal/domain/dedupe"
	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/internal/domain/scoring"
	"github.com/okian/gigrank/internal/domain/types"
	"github.com/okian/gigrank/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultDefaultLimit = 20
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.Event) bool

	RecommendJobs(ctx context.Context, freelancerID string, limit int) ([]types.Recommendation, error)
	RecommendCandidates(ctx context.Context, postingID string, limit int) ([]types.Recommendation, error)
	Score(ctx context.Context, in scoring.Input) (scoring.Result, error)
	Reputation(ctx context.Context, userID string) (types.ReputationSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	maxLimit     int
	defaultLimit int
	logger       logger.Logger

	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	ingestHandler          *IngestHandler
	recommendationsHandler *RecommendationsHandler
	scoreHandler           *ScoreHandler
	reputationHandler      *ReputationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		deps:         deps,
		maxLimit:     defaultMaxLimit,
		defaultLimit: defaultDefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.ingestHandler = NewIngestHandler(deps)
	s.recommendationsHandler = NewRecommendationsHandler(deps, s.defaultLimit, s.maxLimit)
	s.scoreHandler = NewScoreHandler(deps)
	s.reputationHandler = NewReputationHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	routes := []struct {
		pattern  string
		endpoint string
		handler  http.HandlerFunc
	}{
		{"GET /healthz", "healthz", s.healthHandler.HandleHealth},
		{"GET /stats", "stats", s.statsHandler.HandleStats},
		{"POST /postings", "postings", s.ingestHandler.HandlePostPosting},
		{"POST /profiles", "profiles", s.ingestHandler.HandlePostProfile},
		{"POST /reviews", "reviews", s.ingestHandler.HandlePostReview},
		{"GET /recommendations/jobs/{freelancer_id}", "recommendations_jobs", s.recommendationsHandler.HandleJobs},
		{"GET /recommendations/candidates/{posting_id}", "recommendations_candidates", s.recommendationsHandler.HandleCandidates},
		{"POST /score", "score", s.scoreHandler.HandleScore},
		{"GET /reputation/{user_id}", "reputation", s.reputationHandler.HandleGetReputation},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, RequestIDMiddleware(MetricsMiddleware(rt.handler, rt.endpoint), s.logger))
	}
	s.logger.Debug(ctx, "api routes registered", logger.Int("routes", len(routes)))
}

// ackResponse is returned by the ingestion endpoints.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	EventID   string `json:"event_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the kind carried by err to a status code and error body.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
