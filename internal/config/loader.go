package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/leaderforge/leaderforge/internal/errs"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LEADERFORGE_CONFIG is set
//  3. env (prefix LEADERFORGE_)
func Load(ctx context.Context) (*Config, error) {
	const op = "config.load"

	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("LEADERFORGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errs.WrapKind(op, ErrLoadConfig, err)
		}
	}

	// Environment variables: LEADERFORGE_ADDR, LEADERFORGE_MAX_SCORE, ...
	// Map env keys like LEADERFORGE_MAX_SCORE -> max_score (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("LEADERFORGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "leaderforge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errs.WrapKind(op, ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	const op = "config.validate"
	switch {
	case c.Addr == "":
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("addr must not be empty"))
	case c.MaxScore <= 0:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("max_score must be positive"))
	case c.MaxLeaderboardLimit < 1:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("max_leaderboard_limit must be at least 1"))
	case c.DefaultLeaderboardLimit < 1 || c.DefaultLeaderboardLimit > c.MaxLeaderboardLimit:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("default_leaderboard_limit must be within [1, max_leaderboard_limit]"))
	case c.CacheTTLTopSeconds < 1 || c.CacheTTLRankSeconds < 1:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("cache TTLs must be at least one second"))
	case len(c.GameModes) == 0:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("game_modes must not be empty"))
	case c.StoreBackend != StorePostgres && c.StoreBackend != StoreMemory:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("store_backend must be postgres or memory"))
	case c.CacheBackend != CacheRedis && c.CacheBackend != CacheMemory && c.CacheBackend != CacheNone:
		return errs.WrapKind(op, ErrInvalidConfig, errFieldf("cache_backend must be redis, memory, or none"))
	}
	return nil
}
