package service

import (
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/trundler/internal/adapters/prefetch"
	"github.com/okian/trundler/internal/adapters/source"
	"github.com/okian/trundler/internal/config"
	"github.com/okian/trundler/internal/domain/adjust"
	"github.com/okian/trundler/internal/domain/aggregate"
	"github.com/okian/trundler/internal/domain/confidence"
	"github.com/okian/trundler/internal/domain/model"
)

// FromConfig wires a full engine from process configuration: store,
// fixture providers, aggregator, estimator, adjuster and warmer. Both the
// server and the one-shot CLI build through here.
func FromConfig(cfg *config.Config, extra ...Option) (*Service, error) {
	store := source.NewStore(
		source.WithTTL(time.Duration(cfg.CacheTTLSeconds)*time.Second),
		source.WithRetry(cfg.RetryMaxAttempts, time.Duration(cfg.RetryBaseDelayMS)*time.Millisecond, cfg.RetryBackoffFactor),
		source.WithFetchRate(rate.Limit(cfg.FetchRatePerSec), cfg.FetchBurst),
	)

	tiers := tiersFromWeights(cfg.TierWeights)
	agg, err := aggregate.New(
		aggregate.WithTiers(model.Batting, tiers),
		aggregate.WithTiers(model.Bowling, tiers),
		aggregate.WithStalenessThreshold(time.Duration(cfg.StalenessThresholdDays)*24*time.Hour),
		aggregate.WithHardCutoff(time.Duration(cfg.HardCutoffDays)*24*time.Hour),
	)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithStore(store),
		WithAggregator(agg),
		WithEstimator(confidence.New(
			confidence.WithBaseUncertainty(cfg.BaseUncertainty),
			confidence.WithRecencyCutoff(time.Duration(cfg.HardCutoffDays)*24*time.Hour),
		)),
		WithAdjuster(adjust.New(
			adjust.WithHomeBattingBoost(cfg.HomeBattingBoost),
			adjust.WithStrengthScale(cfg.StrengthScale),
		)),
	}

	providers := make([]source.Provider, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		group := model.MetricGroup(src.Group)
		var (
			p   source.Provider
			err error
		)
		if src.URL != "" {
			p, err = source.NewHTTPProvider(src.ID, src.Tier, group, src.URL)
		} else {
			p, err = source.NewFixtureProvider(src.ID, src.Tier, group, src.Fixture)
		}
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
		opts = append(opts, WithProviders(group, p))
	}

	if len(providers) > 0 {
		opts = append(opts, WithWarmer(prefetch.NewWarmer(store, providers,
			prefetch.WithInterval(time.Duration(cfg.PrefetchIntervalSeconds)*time.Second),
			prefetch.WithWorkerCount(cfg.PrefetchWorkers),
			prefetch.WithQueueCapacity(cfg.PrefetchQueueCapacity),
		)))
	}

	return New(append(opts, extra...)...)
}

// tiersFromWeights converts the configured weight map into an ordered tier
// scheme. Ordering is by descending weight, then name, so aggregation is
// deterministic across runs.
func tiersFromWeights(weights map[string]float64) []aggregate.Tier {
	tiers := make([]aggregate.Tier, 0, len(weights))
	for name, w := range weights {
		tiers = append(tiers, aggregate.Tier{Name: name, Weight: w})
	}
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].Weight != tiers[j].Weight {
			return tiers[i].Weight > tiers[j].Weight
		}
		return tiers[i].Name < tiers[j].Name
	})
	return tiers
}
