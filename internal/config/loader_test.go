package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/trundler/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 3600)
				convey.So(cfg.RetryMaxAttempts, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRUNDLER_ADDR", ":8080")
			_ = os.Setenv("TRUNDLER_CACHE_TTL_SECONDS", "600")
			_ = os.Setenv("TRUNDLER_RETRY_MAX_ATTEMPTS", "5")
			_ = os.Setenv("TRUNDLER_LOG_LEVEL", "debug")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 600)
				convey.So(cfg.RetryMaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
cache_ttl_seconds: 1800
prefetch_interval_seconds: 60
tier_weights:
  recent_form: 0.5
  historical: 0.5
sources:
  - id: espn_recent
    tier: recent_form
    group: batting
    fixture: testdata/espn.yaml
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("TRUNDLER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CacheTTLSeconds, convey.ShouldEqual, 1800)
				convey.So(cfg.PrefetchIntervalSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.Sources, convey.ShouldHaveLength, 1)
				convey.So(cfg.Sources[0].ID, convey.ShouldEqual, "espn_recent")
			})

			convey.Convey("Then the configured weights replace the defaults wholesale", func() {
				convey.So(cfg.TierWeights, convey.ShouldResemble, map[string]float64{
					"recent_form": 0.5,
					"historical":  0.5,
				})
				convey.So(cfg.TierWeights, convey.ShouldNotContainKey, "current_tournament")
			})
		})

		convey.Convey("When the file sets weights that do not sum to 1", func() {
			yamlContent := `
tier_weights:
  recent_form: 0.5
  historical: 0.4
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("TRUNDLER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails at startup", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When env overrides the file", func() {
			yamlContent := `
addr: ":9090"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("TRUNDLER_CONFIG", tmpFile)
			_ = os.Setenv("TRUNDLER_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env value wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"TRUNDLER_CONFIG",
		"TRUNDLER_ADDR",
		"TRUNDLER_LOG_LEVEL",
		"TRUNDLER_CACHE_TTL_SECONDS",
		"TRUNDLER_RETRY_MAX_ATTEMPTS",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
