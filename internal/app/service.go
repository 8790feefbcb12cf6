// Package service provides the prediction engine that implements the
// dependencies required by the HTTP API. It orchestrates the snapshot store,
// the feature aggregator, the confidence estimator and the contextual
// adjuster, and owns the baseline fallback chain.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/trundler/internal/adapters/prefetch"
	"github.com/okian/trundler/internal/adapters/source"
	"github.com/okian/trundler/internal/domain/adjust"
	"github.com/okian/trundler/internal/domain/aggregate"
	"github.com/okian/trundler/internal/domain/baseline"
	"github.com/okian/trundler/internal/domain/confidence"
	"github.com/okian/trundler/internal/domain/model"
	"github.com/okian/trundler/pkg/logger"
	"github.com/okian/trundler/pkg/metrics"
)

// stage names a phase of a prediction request, for logs.
type stage string

const (
	stageInit        stage = "init"
	stageFetching    stage = "fetching"
	stageAggregating stage = "aggregating"
	stageEstimating  stage = "estimating"
	stageAdjusting   stage = "adjusting"
	stageDone        stage = "done"
)

// degradedConfidence is the fixed confidence floor reported when a metric
// group is served entirely from role baselines.
const degradedConfidence = 0.3

// Service is the prediction engine.
type Service struct {
	mu sync.RWMutex

	store     source.Store
	providers map[model.MetricGroup][]source.Provider

	baselines  baseline.Resolver
	aggregator *aggregate.Aggregator
	estimator  confidence.Estimator
	adjuster   *adjust.Adjuster

	warmer     *prefetch.Warmer
	warmCancel context.CancelFunc

	now func() time.Time

	started bool

	logger logger.Logger
}

// New constructs a Service. The aggregator, estimator and adjuster default
// to their canonical configurations; the store and providers must be wired
// via options before Start.
func New(opts ...Option) (*Service, error) {
	agg, err := aggregate.New()
	if err != nil {
		return nil, err
	}
	resolver, err := baseline.NewResolver()
	if err != nil {
		return nil, err
	}

	s := &Service{
		providers:  make(map[model.MetricGroup][]source.Provider),
		baselines:  resolver,
		aggregator: agg,
		estimator:  confidence.New(),
		adjuster:   adjust.New(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start initializes the remaining components and begins cache warming.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("engine")
	}
	if s.store == nil {
		s.store = source.NewStore()
	}

	all := make([]source.Provider, 0)
	for _, group := range model.MetricGroups() {
		all = append(all, s.providers[group]...)
	}
	if s.warmer == nil && len(all) > 0 {
		s.warmer = prefetch.NewWarmer(s.store, all)
	}
	if s.warmer != nil {
		warmCtx, cancel := context.WithCancel(context.Background())
		s.warmCancel = cancel
		go s.warmer.Run(warmCtx)
	}

	s.started = true
	s.logger.Info(ctx, "prediction engine started",
		logger.Int("batting_sources", len(s.providers[model.Batting])),
		logger.Int("bowling_sources", len(s.providers[model.Bowling])),
	)
	return nil
}

// Stop gracefully shuts down the engine.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	if s.warmer != nil {
		if err := s.warmer.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "prefetch shutdown failed", logger.Error(err))
		}
	}
	if s.warmCancel != nil {
		s.warmCancel()
	}

	s.started = false
	s.logger.Info(ctx, "prediction engine stopped")
}

// Predict produces the four-metric prediction for one player. Individual
// source failures degrade locally; only malformed input is returned as an
// error.
func (s *Service) Predict(ctx context.Context, playerID, role string, mctx model.MatchContext) (model.PlayerPrediction, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	}()

	log := s.log()
	log.Debug(ctx, "prediction request", logger.String("stage", string(stageInit)),
		logger.String("player_id", playerID), logger.String("role", role))

	parsedRole, err := validateInput(playerID, role, mctx)
	if err != nil {
		metrics.RecordErrorByComponent("engine", "invalid_input")
		return model.PlayerPrediction{}, err
	}
	mctx = mctx.Normalize()

	result := model.PlayerPrediction{
		PlayerID:    playerID,
		Role:        parsedRole,
		Predictions: make(map[string]model.Prediction, len(model.TargetMetrics)),
		GeneratedAt: s.now().UTC(),
	}

	now := s.now()
	degradedAny := false
	confSum := 0.0
	confCount := 0

	for _, group := range model.MetricGroups() {
		log.Debug(ctx, "fetching snapshots", logger.String("stage", string(stageFetching)),
			logger.String("group", string(group)))
		snaps := s.fetchGroup(ctx, group, playerID)

		log.Debug(ctx, "aggregating", logger.String("stage", string(stageAggregating)),
			logger.String("group", string(group)), logger.Int("snapshots", len(snaps)))
		vec, degraded := s.aggregateOrFallback(ctx, group, playerID, parsedRole, snaps, now)
		degradedAny = degradedAny || degraded

		log.Debug(ctx, "estimating", logger.String("stage", string(stageEstimating)),
			logger.String("group", string(group)))
		for _, metric := range model.GroupTargets(group) {
			feature := vec.PerMetric[metric]
			metrics.RecordAggregationCompleteness(feature.Completeness)

			pred := s.estimator.Estimate(metric, feature, now)
			if degraded {
				pred.Confidence = degradedConfidence
				pred.Degraded = true
			}

			pred = s.adjuster.Apply(pred, group, mctx)

			result.Predictions[metric] = pred
			confSum += pred.Confidence
			confCount++
		}
	}

	log.Debug(ctx, "adjusted", logger.String("stage", string(stageAdjusting)),
		logger.String("player_id", playerID))

	if confCount > 0 {
		result.OverallConfidence = confSum / float64(confCount)
	}

	if s.warmer != nil {
		s.warmer.Track(ctx, playerID)
	}

	metrics.RecordPrediction()
	if degradedAny {
		metrics.RecordPredictionDegraded()
	}

	log.Debug(ctx, "prediction complete", logger.String("stage", string(stageDone)),
		logger.String("player_id", playerID),
		logger.Float64("overall_confidence", result.OverallConfidence),
		logger.Bool("degraded", degradedAny))

	return result, nil
}

// fetchGroup reads one snapshot per provider through the store, keyed by
// tier. A provider failure excludes its tier; the aggregator renormalizes.
func (s *Service) fetchGroup(ctx context.Context, group model.MetricGroup, playerID string) map[string]model.SourceSnapshot {
	snaps := make(map[string]model.SourceSnapshot)
	if s.store == nil {
		return snaps
	}
	for _, p := range s.providers[group] {
		snap, err := s.store.GetOrFetch(ctx, p, playerID)
		if err != nil {
			s.log().Debug(ctx, "source excluded from aggregation",
				logger.String("source", p.ID()),
				logger.String("player_id", playerID),
				logger.Error(err))
			continue
		}
		snaps[p.Tier()] = snap
	}
	return snaps
}

// aggregateOrFallback aggregates the group's snapshots, substituting the
// role baseline wholesale when nothing contributed.
func (s *Service) aggregateOrFallback(ctx context.Context, group model.MetricGroup, playerID string, role model.Role, snaps map[string]model.SourceSnapshot, now time.Time) (model.FeatureVector, bool) {
	vec, err := s.aggregator.Aggregate(playerID, group, snaps, now)
	if err == nil {
		return vec, false
	}
	if !errors.Is(err, aggregate.ErrInsufficientData) {
		// Configuration problems surface at startup; anything else here is
		// treated as a total miss for the group.
		s.log().Error(ctx, "aggregation failed", logger.String("group", string(group)), logger.Error(err))
	}

	metrics.RecordBaselineFallback(string(group), string(role))
	s.log().Info(ctx, "substituting role baseline",
		logger.String("player_id", playerID),
		logger.String("group", string(group)),
		logger.String("role", string(role)))

	return s.baselineVector(playerID, group, role), true
}

// baselineVector builds a FeatureVector from the role baseline table, with
// zero completeness so the estimator reports maximum uncertainty.
func (s *Service) baselineVector(playerID string, group model.MetricGroup, role model.Role) model.FeatureVector {
	row := s.baselines.Resolve(role)
	values := row.GroupValues(group)

	per := make(map[string]model.Feature, len(values))
	for metric, v := range values {
		per[metric] = model.Feature{Value: v}
	}
	return model.FeatureVector{
		PlayerID:     playerID,
		MetricGroup:  group,
		PerMetric:    per,
		BaselineOnly: true,
	}
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Named("engine")
	}
	return s.logger
}

// Invalidate drops all cached snapshots for a player.
func (s *Service) Invalidate(_ context.Context, playerID string) {
	if s.store == nil {
		return
	}
	s.store.InvalidatePlayer(playerID)
}

// Stats is a point-in-time view of the engine for monitoring.
type Stats struct {
	Started         bool         `json:"started"`
	BattingSources  int          `json:"batting_sources"`
	BowlingSources  int          `json:"bowling_sources"`
	BaselineVersion string       `json:"baseline_version"`
	Cache           source.Stats `json:"cache"`
	TrackedPlayers  int          `json:"tracked_players"`
}

// GetStats returns engine statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:         s.started,
		BattingSources:  len(s.providers[model.Batting]),
		BowlingSources:  len(s.providers[model.Bowling]),
		BaselineVersion: s.baselines.Version(),
	}

	if s.store != nil {
		stats.Cache = s.store.Stats()
	}
	if s.warmer != nil {
		stats.TrackedPlayers = s.warmer.Tracked()
	}
	return stats
}

// validateInput enforces the request-level input contract.
func validateInput(playerID, role string, mctx model.MatchContext) (model.Role, error) {
	if playerID == "" {
		return "", NewInvalidInputError("player_id must not be empty")
	}

	parsed, err := model.ParseRole(role)
	if err != nil {
		return "", NewInvalidInputError(err.Error())
	}

	if mctx.WeatherBattingFactor < 0 || mctx.WeatherBowlingFactor < 0 ||
		mctx.VenueRunsFactor < 0 || mctx.VenueWicketsFactor < 0 {
		return "", NewInvalidInputError("context factors must not be negative")
	}
	if mctx.TeamStrength < 0 || mctx.TeamStrength > 1 ||
		mctx.OppositionStrength < 0 || mctx.OppositionStrength > 1 {
		return "", NewInvalidInputError("team strengths must be in [0,1]")
	}

	return parsed, nil
}
