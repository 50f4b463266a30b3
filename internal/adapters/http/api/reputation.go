package api

import (
	"errors"
	"net/http"
)

// ReputationHandler serves review aggregates per user.
type ReputationHandler struct {
	deps Dependencies
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(deps Dependencies) *ReputationHandler {
	return &ReputationHandler{deps: deps}
}

// HandleGetReputation handles GET /reputation/{user_id}.
func (h *ReputationHandler) HandleGetReputation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_reputation"

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing user_id")))
		return
	}
	summary, err := h.deps.Reputation(r.Context(), userID)
	if err != nil {
		writeError(w, serviceError(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
