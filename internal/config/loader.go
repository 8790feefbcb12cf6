package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if TRUNDLER_CONFIG is set
//  3. env (prefix TRUNDLER_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TRUNDLER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TRUNDLER_ADDR, TRUNDLER_CACHE_TTL_SECONDS, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("TRUNDLER_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "trundler_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// A configured weight scheme replaces the default map wholesale; merging
	// would leave default tiers behind and break the sum-to-1 invariant.
	if k.Exists("tier_weights") {
		cfg.TierWeights = make(map[string]float64)
	}
	if k.Exists("sources") {
		cfg.Sources = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
