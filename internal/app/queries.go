package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/errs"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// GetTopPlayers returns the highest-ranked players, serving a cached
// snapshot when one exists and rebuilding it from the store otherwise.
func (s *Service) GetTopPlayers(ctx context.Context, limit int) (TopPlayers, error) {
	const op = "service.GetTopPlayers"

	if limit < 1 || limit > s.maxLimit {
		return TopPlayers{}, errs.NewKind(
			fmt.Sprintf("%s: limit %d outside [1, %d]", op, limit, s.maxLimit),
			errs.ErrInvalidArgument,
		)
	}
	metrics.RecordTopQuery()

	key := cache.TopKey(limit)
	if raw, hit := s.cache.Get(ctx, key); hit {
		var snapshot TopPlayers
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			metrics.RecordCacheHit("top")
			return snapshot, nil
		}
		// A corrupt snapshot falls through to a rebuild.
		s.logger.Warn(ctx, "dropping undecodable top snapshot", logger.String("key", key))
		s.cache.Invalidate(ctx, key)
	}
	metrics.RecordCacheMiss("top")

	entries, err := s.store.TopN(ctx, limit)
	if err != nil {
		return TopPlayers{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return TopPlayers{}, err
	}

	snapshot := TopPlayers{
		Entries:      make([]model.RankedEntry, 0, len(entries)),
		TotalPlayers: total,
		GeneratedAt:  time.Now().UTC(),
	}
	for i, entry := range entries {
		snapshot.Entries = append(snapshot.Entries, model.RankedEntry{
			Rank:             int64(i + 1),
			LeaderboardEntry: entry,
		})
	}

	s.cacheSnapshot(ctx, key, snapshot, s.topTTL)
	return snapshot, nil
}

// GetPlayerRank returns one player's rank, total and percentile. The
// percentile is the share of players strictly below the player, so a
// board of one yields 0 and nobody reaches 100.
func (s *Service) GetPlayerRank(ctx context.Context, playerID string) (PlayerRank, error) {
	const op = "service.GetPlayerRank"

	if playerID == "" {
		return PlayerRank{}, errs.NewKind(op+": player id is required", errs.ErrInvalidArgument)
	}
	metrics.RecordRankQuery()

	key := cache.RankKey(playerID)
	if raw, hit := s.cache.Get(ctx, key); hit {
		var snapshot PlayerRank
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			metrics.RecordCacheHit("rank")
			return snapshot, nil
		}
		s.logger.Warn(ctx, "dropping undecodable rank snapshot", logger.String("key", key))
		s.cache.Invalidate(ctx, key)
	}
	metrics.RecordCacheMiss("rank")

	rank, err := s.store.RankOf(ctx, playerID)
	if err != nil {
		return PlayerRank{}, err
	}
	entry, err := s.store.GetEntry(ctx, playerID)
	if err != nil {
		return PlayerRank{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return PlayerRank{}, err
	}

	snapshot := PlayerRank{
		RankedEntry:  model.RankedEntry{Rank: rank, LeaderboardEntry: entry},
		Percentile:   percentile(rank, total),
		TotalPlayers: total,
	}

	s.cacheSnapshot(ctx, key, snapshot, s.rankTTL)
	return snapshot, nil
}

// RegisterPlayer creates a player with a generated id.
func (s *Service) RegisterPlayer(ctx context.Context, displayName string) (model.Player, error) {
	const op = "service.RegisterPlayer"

	if displayName == "" {
		return model.Player{}, errs.NewKind(op+": display name is required", errs.ErrInvalidArgument)
	}

	player := model.Player{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return model.Player{}, err
	}
	return player, nil
}

// GetPlayer fetches a registered player by id.
func (s *Service) GetPlayer(ctx context.Context, playerID string) (model.Player, error) {
	if playerID == "" {
		return model.Player{}, errs.NewKind("service.GetPlayer: player id is required", errs.ErrInvalidArgument)
	}
	return s.store.GetPlayer(ctx, playerID)
}

func (s *Service) cacheSnapshot(ctx context.Context, key string, snapshot interface{}, ttl time.Duration) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Warn(ctx, "snapshot encode failed", logger.String("key", key), logger.Error(err))
		return
	}
	s.cache.Set(ctx, key, raw, ttl)
}

// percentile reports, to two decimals, the share of players ranked below
// the given rank out of total.
func percentile(rank, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-rank) / float64(total) * 100
	return math.Round(p*percentilePrecision) / percentilePrecision
}
