// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/trundler/internal/app"
	"github.com/okian/trundler/internal/domain/model"
)

// predictRequest mirrors the request schema for POST /predict.
type predictRequest struct {
	PlayerID     string               `json:"player_id"`
	Role         string               `json:"role"`
	MatchContext *matchContextRequest `json:"match_context"`
}

// matchContextRequest carries the optional contextual adjustments. Absent
// fields take the neutral defaults.
type matchContextRequest struct {
	IsHomeGame           bool     `json:"is_home_game"`
	WeatherBattingFactor *float64 `json:"weather_batting_factor"`
	WeatherBowlingFactor *float64 `json:"weather_bowling_factor"`
	VenueRunsFactor      *float64 `json:"venue_runs_factor"`
	VenueWicketsFactor   *float64 `json:"venue_wickets_factor"`
	TeamStrength         *float64 `json:"team_strength"`
	OppositionStrength   *float64 `json:"opposition_strength"`
	Weather              *weather `json:"weather"`
}

type weather struct {
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	WindSpeedKPH    float64 `json:"wind_speed_kph"`
	RainProbability float64 `json:"rain_probability"`
}

func (r predictRequest) validate() error {
	switch {
	case strings.TrimSpace(r.PlayerID) == "":
		return errors.New("missing player_id")
	case strings.TrimSpace(r.Role) == "":
		return errors.New("missing role")
	}
	return nil
}

// toModel builds the engine MatchContext, filling unset options with the
// stated neutral defaults.
func (r predictRequest) toModel() model.MatchContext {
	mctx := model.NewMatchContext()
	req := r.MatchContext
	if req == nil {
		return mctx
	}

	mctx.IsHomeGame = req.IsHomeGame
	if req.WeatherBattingFactor != nil {
		mctx.WeatherBattingFactor = *req.WeatherBattingFactor
	}
	if req.WeatherBowlingFactor != nil {
		mctx.WeatherBowlingFactor = *req.WeatherBowlingFactor
	}
	if req.VenueRunsFactor != nil {
		mctx.VenueRunsFactor = *req.VenueRunsFactor
	}
	if req.VenueWicketsFactor != nil {
		mctx.VenueWicketsFactor = *req.VenueWicketsFactor
	}
	if req.TeamStrength != nil {
		mctx.TeamStrength = *req.TeamStrength
	}
	if req.OppositionStrength != nil {
		mctx.OppositionStrength = *req.OppositionStrength
	}
	if req.Weather != nil {
		mctx.Weather = &model.WeatherObservation{
			TemperatureC:    req.Weather.TemperatureC,
			HumidityPct:     req.Weather.HumidityPct,
			WindSpeedKPH:    req.Weather.WindSpeedKPH,
			RainProbability: req.Weather.RainProbability,
		}
	}
	return mctx
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.Predict(r.Context(), req.PlayerID, req.Role, req.toModel())
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_input", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
