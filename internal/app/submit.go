package app

import (
	"context"
	"fmt"
	"time"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/errs"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// SubmitScore applies a single score submission to the player's aggregate.
// The increment happens atomically inside the store; no totals are read,
// modified and written back here. A repeated request token short-circuits
// before any write and acknowledges with the current aggregate.
func (s *Service) SubmitScore(ctx context.Context, req SubmitRequest) (result SubmitResult, err error) {
	const op = "service.SubmitScore"

	if req.PlayerID == "" {
		metrics.RecordSubmissionError("invalid_player")
		return SubmitResult{}, errs.NewKind(op+": player id is required", errs.ErrInvalidArgument)
	}
	if req.Score < 0 || req.Score > s.maxScore {
		metrics.RecordSubmissionError("invalid_score")
		return SubmitResult{}, errs.NewKind(
			fmt.Sprintf("%s: score %d outside [0, %d]", op, req.Score, s.maxScore),
			errs.ErrInvalidArgument,
		)
	}

	mode, err := s.resolveMode(req.Mode)
	if err != nil {
		metrics.RecordSubmissionError("invalid_mode")
		return SubmitResult{}, err
	}

	// Idempotency: a token seen before means the write already happened
	// (or is in flight); acknowledge without touching the store again.
	recorded := false
	if req.RequestToken != "" {
		if s.deduper.SeenAndRecord(ctx, req.RequestToken) {
			metrics.RecordSubmissionDuplicate()
			s.logger.Debug(ctx, "duplicate submission acknowledged",
				logger.String("playerId", req.PlayerID),
				logger.String("token", req.RequestToken),
			)
			return s.duplicateResult(ctx, req.PlayerID)
		}
		recorded = true
	}
	defer func() {
		// Failed submissions must stay retryable with the same token.
		if err != nil && recorded {
			s.deduper.Unrecord(ctx, req.RequestToken)
		}
	}()

	player, err := s.store.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		if !errs.IsNotFound(err) {
			metrics.RecordSubmissionError("store")
		}
		return SubmitResult{}, err
	}

	event := model.ScoreEvent{
		PlayerID:   player.ID,
		Score:      req.Score,
		Mode:       mode,
		RecordedAt: time.Now().UTC(),
	}

	entry, err := s.store.AtomicUpsertIncrement(ctx, event, player.DisplayName)
	if err != nil {
		metrics.RecordSubmissionError("store")
		return SubmitResult{}, err
	}

	if entry.TotalScore < 0 || entry.TotalScore < req.Score && entry.SessionCount == 1 {
		s.logger.Error(ctx, "aggregate violated non-negative monotonic total",
			logger.String("playerId", player.ID),
			logger.Int64("totalScore", entry.TotalScore),
			logger.Int64("submitted", req.Score),
		)
		metrics.RecordSubmissionError("corrupt_aggregate")
		return SubmitResult{}, errs.NewKind(op+": aggregate total out of range", errs.ErrInternal)
	}

	s.invalidateAfterWrite(ctx, player.ID)
	metrics.RecordSubmission()

	result = SubmitResult{
		PlayerID:     player.ID,
		DisplayName:  entry.DisplayName,
		TotalScore:   entry.TotalScore,
		SessionCount: entry.SessionCount,
	}

	// Rank is informational on the write path; the write already succeeded,
	// so a failed rank read degrades to rank 0 instead of failing the call.
	if rank, rankErr := s.store.RankOf(ctx, player.ID); rankErr == nil {
		result.Rank = rank
	} else {
		s.logger.Warn(ctx, "rank read after submit failed",
			logger.String("playerId", player.ID),
			logger.Error(rankErr),
		)
	}

	return result, nil
}

// duplicateResult acknowledges a replayed token with the current aggregate.
func (s *Service) duplicateResult(ctx context.Context, playerID string) (SubmitResult, error) {
	result := SubmitResult{PlayerID: playerID, Duplicate: true}

	entry, err := s.store.GetEntry(ctx, playerID)
	if err != nil {
		// The first delivery may still be in flight; acknowledge anyway.
		if errs.IsNotFound(err) {
			return result, nil
		}
		return SubmitResult{}, err
	}

	result.DisplayName = entry.DisplayName
	result.TotalScore = entry.TotalScore
	result.SessionCount = entry.SessionCount
	if rank, rankErr := s.store.RankOf(ctx, playerID); rankErr == nil {
		result.Rank = rank
	}
	return result, nil
}

// invalidateAfterWrite drops every cached view the write made stale: the
// player's rank snapshot and all top-N snapshots. Cache trouble is absorbed;
// the TTL backstop bounds staleness if eviction is missed.
func (s *Service) invalidateAfterWrite(ctx context.Context, playerID string) {
	n := s.cache.Invalidate(ctx, cache.RankKey(playerID))
	n += s.cache.InvalidateByPrefix(ctx, cache.TopPrefix)
	if n > 0 {
		metrics.RecordCacheInvalidation(n)
	}
}

func (s *Service) resolveMode(mode string) (string, error) {
	if mode == "" {
		return s.gameModes[0], nil
	}
	for _, m := range s.gameModes {
		if m == mode {
			return mode, nil
		}
	}
	return "", errs.NewKind(
		fmt.Sprintf("service.SubmitScore: unknown game mode %q", mode),
		errs.ErrInvalidArgument,
	)
}
