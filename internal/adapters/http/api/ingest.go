package api

import (
	"net/http"

	"github.com/okian/gigrank/internal/domain/model"
	"github.com/okian/gigrank/pkg/metrics"
)

// ingestRequest is implemented by every ingestion request body.
type ingestRequest interface {
	event() model.Event
}

// IngestHandler accepts postings, profiles and reviews for async processing.
type IngestHandler struct {
	deps Dependencies
}

// NewIngestHandler creates a new ingestion handler.
func NewIngestHandler(deps Dependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

// HandlePostPosting handles POST /postings.
func (h *IngestHandler) HandlePostPosting(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "api.post_posting", &postingRequest{})
}

// HandlePostProfile handles POST /profiles.
func (h *IngestHandler) HandlePostProfile(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "api.post_profile", &profileRequest{})
}

// HandlePostReview handles POST /reviews.
func (h *IngestHandler) HandlePostReview(w http.ResponseWriter, r *http.Request) {
	h.ingest(w, r, "api.post_review", &reviewRequest{})
}

// ingest decodes and validates req, then records its event id and enqueues
// it. A duplicate id is acknowledged without enqueueing; an id whose enqueue
// fails is forgotten so the client can retry.
func (h *IngestHandler) ingest(w http.ResponseWriter, r *http.Request, op string, req ingestRequest) {
	ctx := r.Context()
	if err := decodeJSON(w, r, req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateRequest(req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	e := req.event()
	if h.deps.SeenAndRecord(ctx, e.EventID) {
		metrics.RecordEventDuplicate(string(e.Kind))
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, EventID: e.EventID})
		return
	}
	if !h.deps.Enqueue(ctx, e) {
		h.deps.Unrecord(ctx, e.EventID)
		writeError(w, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: e.EventID})
}
