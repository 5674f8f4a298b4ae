package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/leaderforge/leaderforge/pkg/logger"
)

// submission is one unit of generated traffic.
type submission struct {
	playerID string
	score    int64
	token    string
	replay   bool
}

// stats aggregates the outcome of a run.
type stats struct {
	submitted  int64
	applied    int64
	duplicates int64
	failed     int64
}

// Run registers players, floods the service with submissions and then
// verifies that the resulting board matches what was sent.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.Get().Named("loadgen")
	client := newAPIClient(cfg.BaseURL, cfg.Timeout)
	start := time.Now()

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Float64("duplicateRatio", cfg.DuplicateRatio),
	)

	if err := client.checkHealth(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	players, err := registerPlayers(ctx, client, cfg.Players)
	if err != nil {
		return fmt.Errorf("player registration failed: %w", err)
	}
	log.Info(ctx, "players registered", logger.Int("count", len(players)))

	submissions := generateSubmissions(cfg, players)
	expected := expectedTotals(submissions)

	runStats := submitAll(ctx, cfg, client, submissions, log)

	log.Info(ctx, "submissions done",
		logger.Int64("submitted", runStats.submitted),
		logger.Int64("applied", runStats.applied),
		logger.Int64("duplicates", runStats.duplicates),
		logger.Int64("failed", runStats.failed),
	)
	if runStats.failed > 0 {
		return fmt.Errorf("%d submissions failed", runStats.failed)
	}

	if err := verifyTotals(ctx, client, expected); err != nil {
		return fmt.Errorf("total verification failed: %w", err)
	}
	if err := verifyBoard(ctx, client, cfg.TopN, len(players)); err != nil {
		return fmt.Errorf("board verification failed: %w", err)
	}

	elapsed := time.Since(start)
	log.Info(ctx, "load run completed",
		logger.Duration("elapsed", elapsed),
		logger.Float64("submissionsPerSecond", float64(runStats.submitted)/elapsed.Seconds()),
	)
	return nil
}

func registerPlayers(ctx context.Context, client *apiClient, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		player, err := client.registerPlayer(ctx, fmt.Sprintf("load-player-%04d", i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, player.ID)
	}
	return ids, nil
}

// generateSubmissions produces the traffic plan up front so expected
// totals can be derived before anything is sent. A slice of submissions
// is replayed with an already-used token; those must not change totals.
func generateSubmissions(cfg *Config, players []string) []submission {
	maxScore := cfg.MaxScore
	if maxScore <= 0 {
		maxScore = 10_000
	}

	subs := make([]submission, 0, cfg.Submissions)
	for i := 0; i < cfg.Submissions; i++ {
		if len(subs) > 0 && rand.Float64() < cfg.DuplicateRatio {
			replayed := subs[rand.Intn(len(subs))]
			replayed.replay = true
			subs = append(subs, replayed)
			continue
		}
		subs = append(subs, submission{
			playerID: players[rand.Intn(len(players))],
			score:    rand.Int63n(maxScore + 1),
			token:    uuid.New().String(),
		})
	}
	return subs
}

// expectedTotals sums every distinct token's score per player.
func expectedTotals(subs []submission) map[string]int64 {
	totals := make(map[string]int64)
	for _, sub := range subs {
		if sub.replay {
			continue
		}
		totals[sub.playerID] += sub.score
	}
	return totals
}

func submitAll(ctx context.Context, cfg *Config, client *apiClient, subs []submission, log logger.Logger) *stats {
	runStats := &stats{}
	work := make(chan submission, cfg.Workers*2)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				result, status, err := client.submitScore(ctx, sub.playerID, sub.score, sub.token)
				atomic.AddInt64(&runStats.submitted, 1)

				switch {
				case err != nil, status >= http.StatusBadRequest:
					atomic.AddInt64(&runStats.failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "submission failed",
							logger.String("playerId", sub.playerID),
							logger.Int("status", status),
						)
					}
				case result.Duplicate:
					atomic.AddInt64(&runStats.duplicates, 1)
				default:
					atomic.AddInt64(&runStats.applied, 1)
				}
			}
		}()
	}

feed:
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			break feed
		case work <- sub:
		}
	}
	close(work)
	wg.Wait()

	return runStats
}

// verifyTotals checks every player's aggregate against the sum of the
// distinct submissions sent for them.
func verifyTotals(ctx context.Context, client *apiClient, expected map[string]int64) error {
	for playerID, want := range expected {
		rank, err := client.getRank(ctx, playerID)
		if err != nil {
			return err
		}
		if rank.TotalScore != want {
			return fmt.Errorf("player %s: total %d, want %d", playerID, rank.TotalScore, want)
		}
	}
	return nil
}

// verifyBoard checks that the top of the board is ordered and that ranks
// are dense and unique starting at 1.
func verifyBoard(ctx context.Context, client *apiClient, topN, players int) error {
	if topN < 1 {
		topN = 10
	}

	top, err := client.getTop(ctx, topN)
	if err != nil {
		return err
	}
	if top.TotalPlayers < int64(players) {
		return fmt.Errorf("board reports %d players, want at least %d", top.TotalPlayers, players)
	}

	for i, entry := range top.Entries {
		if entry.Rank != int64(i+1) {
			return fmt.Errorf("entry %d has rank %d, want %d", i, entry.Rank, i+1)
		}
		if i > 0 && entry.TotalScore > top.Entries[i-1].TotalScore {
			return fmt.Errorf("board out of order at position %d", i)
		}
	}
	return nil
}
