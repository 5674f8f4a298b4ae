package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/leaderforge/leaderforge/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.MaxScore, convey.ShouldEqual, 1_000_000)
				convey.So(cfg.CacheTTLTopSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.CacheTTLRankSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.DefaultLeaderboardLimit, convey.ShouldEqual, 10)
				convey.So(cfg.GameModes, convey.ShouldResemble, []string{"solo", "team"})
				convey.So(cfg.DefaultGameMode(), convey.ShouldEqual, "solo")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LEADERFORGE_ADDR", ":9000")
			_ = os.Setenv("LEADERFORGE_MAX_SCORE", "500000")
			_ = os.Setenv("LEADERFORGE_CACHE_TTL_TOP_SECONDS", "15")
			_ = os.Setenv("LEADERFORGE_CACHE_TTL_RANK_SECONDS", "30")
			_ = os.Setenv("LEADERFORGE_STORE_BACKEND", "memory")
			_ = os.Setenv("LEADERFORGE_CACHE_BACKEND", "memory")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.MaxScore, convey.ShouldEqual, 500_000)
				convey.So(cfg.CacheTTLTopSeconds, convey.ShouldEqual, 15)
				convey.So(cfg.CacheTTLRankSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheMemory)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":8080"
max_score: 250000
max_leaderboard_limit: 50
default_leaderboard_limit: 5
rate_limit_per_minute: 100
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LEADERFORGE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxScore, convey.ShouldEqual, 250_000)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 50)
				convey.So(cfg.DefaultLeaderboardLimit, convey.ShouldEqual, 5)
				convey.So(cfg.RateLimitPerMinute, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("LEADERFORGE_STORE_BACKEND", "oracle")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should fail validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the default limit exceeds the max limit", func() {
			_ = os.Setenv("LEADERFORGE_DEFAULT_LEADERBOARD_LIMIT", "200")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestDefaultGameMode(t *testing.T) {
	convey.Convey("Given a config with game modes", t, func() {
		cfg := config.New()

		convey.Convey("Then the first mode is the default", func() {
			convey.So(cfg.DefaultGameMode(), convey.ShouldEqual, "solo")
		})

		convey.Convey("When the mode list is empty", func() {
			cfg.GameModes = nil

			convey.Convey("Then the default is empty rather than panicking", func() {
				convey.So(cfg.DefaultGameMode(), convey.ShouldEqual, "")
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"LEADERFORGE_CONFIG",
		"LEADERFORGE_ADDR",
		"LEADERFORGE_MAX_SCORE",
		"LEADERFORGE_CACHE_TTL_TOP_SECONDS",
		"LEADERFORGE_CACHE_TTL_RANK_SECONDS",
		"LEADERFORGE_STORE_BACKEND",
		"LEADERFORGE_CACHE_BACKEND",
		"LEADERFORGE_DEFAULT_LEADERBOARD_LIMIT",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "leaderforge-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	_ = f.Close()
	return f.Name()
}
