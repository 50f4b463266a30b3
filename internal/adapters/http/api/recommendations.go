package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/gigrank/internal/adapters/repository"
	service "github.com/okian/gigrank/internal/app"
	"github.com/okian/gigrank/internal/domain/types"
)

type recommendFunc func(ctx context.Context, subjectID string, limit int) ([]types.Recommendation, error)

type recommendationsResponse struct {
	SubjectID string                 `json:"subject_id"`
	Limit     int                    `json:"limit"`
	Results   []types.Recommendation `json:"results"`
}

// RecommendationsHandler serves ranked jobs for a freelancer and ranked
// candidates for a posting.
type RecommendationsHandler struct {
	deps         Dependencies
	defaultLimit int
	maxLimit     int
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps Dependencies, defaultLimit, maxLimit int) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// HandleJobs handles GET /recommendations/jobs/{freelancer_id}.
func (h *RecommendationsHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.recommend_jobs", r.PathValue("freelancer_id"), h.deps.RecommendJobs)
}

// HandleCandidates handles GET /recommendations/candidates/{posting_id}.
func (h *RecommendationsHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.recommend_candidates", r.PathValue("posting_id"), h.deps.RecommendCandidates)
}

func (h *RecommendationsHandler) serve(w http.ResponseWriter, r *http.Request, op, subjectID string, recommend recommendFunc) {
	if subjectID == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing subject id")))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), h.defaultLimit, h.maxLimit)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	recs, err := recommend(r.Context(), subjectID, limit)
	if err != nil {
		writeError(w, serviceError(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{SubjectID: subjectID, Limit: limit, Results: recs})
}

// parseLimit returns def for an empty value and otherwise requires an
// integer in 1..maxLimit.
func parseLimit(raw string, def, maxLimit int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if n < 1 || n > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return n, nil
}

// serviceError attaches the API kind matching a service error.
func serviceError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, service.ErrInvalidLimit):
		return WrapKind(op, ErrBadRequest, err)
	case errors.Is(err, service.ErrNotStarted):
		return WrapKind(op, ErrUnavailable, err)
	default:
		return WrapKind(op, ErrInternal, err)
	}
}
