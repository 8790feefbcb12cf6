// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/trundler/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine implementation.
type Dependencies interface {
	// Predict produces the four-metric prediction for a player.
	Predict(ctx context.Context, playerID, role string, mctx model.MatchContext) (model.PlayerPrediction, error)

	// Invalidate drops all cached snapshots for a player.
	Invalidate(ctx context.Context, playerID string)
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	predictHandler    *PredictHandler
	invalidateHandler *InvalidateHandler
	statsHandler      *StatsHandler
	healthHandler     *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		predictHandler:    NewPredictHandler(deps),
		invalidateHandler: NewInvalidateHandler(deps),
		statsHandler:      NewStatsHandler(statsProvider),
		healthHandler:     NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(RequestIDMiddleware(s.predictHandler.HandlePredict), "predict"))
	mux.HandleFunc("/invalidate", MetricsMiddleware(RequestIDMiddleware(s.invalidateHandler.HandleInvalidate), "invalidate"))
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
