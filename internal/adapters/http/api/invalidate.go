// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// invalidateRequest mirrors the request schema for POST /invalidate.
type invalidateRequest struct {
	PlayerID string `json:"player_id"`
}

type ackResponse struct {
	Status string `json:"status"`
}

// InvalidateHandler handles cache invalidation requests.
type InvalidateHandler struct {
	deps Dependencies
}

// NewInvalidateHandler creates a new invalidate handler.
func NewInvalidateHandler(deps Dependencies) *InvalidateHandler {
	return &InvalidateHandler{deps: deps}
}

// HandleInvalidate handles POST /invalidate requests. The next prediction
// for the player re-fetches every source.
func (h *InvalidateHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.invalidate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing player_id")))
		return
	}

	h.deps.Invalidate(r.Context(), req.PlayerID)
	writeJSON(w, http.StatusOK, ackResponse{Status: "invalidated"})
}
