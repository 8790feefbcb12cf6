// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - Misconfiguration is fatal at load time, never at request time.
// - External errors must be wrapped via this package's error helpers.
package config

import "math"

// weightSumTolerance bounds float drift when validating tier weights.
const weightSumTolerance = 1e-9

// SourceConfig wires one feature provider. Exactly one of Fixture or URL
// selects the backing: a YAML stats file or a JSON stats endpoint.
type SourceConfig struct {
	// ID identifies the source in cache keys and metrics.
	ID string `koanf:"id"`
	// Tier names the aggregation tier the source feeds.
	Tier string `koanf:"tier"`
	// Group is "batting" or "bowling".
	Group string `koanf:"group"`
	// Fixture is the path of the YAML stats file backing this source.
	Fixture string `koanf:"fixture"`
	// URL is the base URL of the stats endpoint backing this source.
	URL string `koanf:"url"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CacheTTLSeconds bounds how long a fetched snapshot stays fresh.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// Retry policy for upstream fetches.
	RetryMaxAttempts   int     `koanf:"retry_max_attempts"`
	RetryBaseDelayMS   int     `koanf:"retry_base_delay_ms"`
	RetryBackoffFactor float64 `koanf:"retry_backoff_factor"`

	// Per-source fetch rate limiting.
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`
	FetchBurst      int     `koanf:"fetch_burst"`

	// Cache warming.
	PrefetchIntervalSeconds int `koanf:"prefetch_interval_seconds"`
	PrefetchWorkers         int `koanf:"prefetch_workers"`
	PrefetchQueueCapacity   int `koanf:"prefetch_queue_capacity"`

	// TierWeights maps tier names to aggregation weights. Must sum to 1.0.
	TierWeights map[string]float64 `koanf:"tier_weights"`

	// Recency handling.
	StalenessThresholdDays int `koanf:"staleness_threshold_days"`
	HardCutoffDays         int `koanf:"hard_cutoff_days"`

	// BaseUncertainty is the relative half-width of prediction intervals.
	BaseUncertainty float64 `koanf:"base_uncertainty"`

	// Contextual adjustment knobs.
	HomeBattingBoost float64 `koanf:"home_batting_boost"`
	StrengthScale    float64 `koanf:"strength_scale"`

	// Sources lists the feature providers to register.
	Sources []SourceConfig `koanf:"sources"`
}

// New creates a Config with the canonical defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		CacheTTLSeconds:         3600,
		RetryMaxAttempts:        3,
		RetryBaseDelayMS:        1000,
		RetryBackoffFactor:      2.0,
		FetchRatePerSec:         5,
		FetchBurst:              2,
		PrefetchIntervalSeconds: 300,
		PrefetchWorkers:         4,
		PrefetchQueueCapacity:   1024,
		TierWeights: map[string]float64{
			"recent_form":        0.4,
			"current_tournament": 0.3,
			"historical":         0.3,
		},
		StalenessThresholdDays: 14,
		HardCutoffDays:         30,
		BaseUncertainty:        0.2,
		HomeBattingBoost:       1.10,
		StrengthScale:          0.1,
	}
}

// Validate enforces the configuration invariants. Violations are fatal.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return NewInvalidConfigError("addr must not be empty")
	}
	if c.CacheTTLSeconds <= 0 {
		return NewInvalidConfigError("cache_ttl_seconds must be positive")
	}
	if c.RetryMaxAttempts < 1 {
		return NewInvalidConfigError("retry_max_attempts must be at least 1")
	}
	if c.RetryBackoffFactor < 1 {
		return NewInvalidConfigError("retry_backoff_factor must be at least 1")
	}
	if c.StalenessThresholdDays >= c.HardCutoffDays {
		return NewInvalidConfigError("staleness_threshold_days must be below hard_cutoff_days")
	}
	if c.BaseUncertainty <= 0 {
		return NewInvalidConfigError("base_uncertainty must be positive")
	}

	if len(c.TierWeights) == 0 {
		return NewInvalidConfigError("tier_weights must not be empty")
	}
	sum := 0.0
	for tier, w := range c.TierWeights {
		if w <= 0 {
			return NewInvalidConfigError("tier_weights[" + tier + "] must be positive")
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return NewInvalidConfigError("tier_weights must sum to 1.0")
	}

	for _, src := range c.Sources {
		if src.ID == "" || src.Tier == "" {
			return NewInvalidConfigError("sources entries need id and tier")
		}
		if (src.Fixture == "") == (src.URL == "") {
			return NewInvalidConfigError("source " + src.ID + " needs exactly one of fixture or url")
		}
		if _, ok := c.TierWeights[src.Tier]; !ok {
			return NewInvalidConfigError("source " + src.ID + " references unknown tier " + src.Tier)
		}
		if src.Group != "batting" && src.Group != "bowling" {
			return NewInvalidConfigError("source " + src.ID + " group must be batting or bowling")
		}
	}

	return nil
}
