package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/leaderforge/leaderforge/internal/loadgen"
	"github.com/leaderforge/leaderforge/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers        = 100
	defaultSubmissions    = 10_000
	defaultTopN           = 50
	defaultWorkerFactor   = 2 // multiplier for runtime.NumCPU()
	defaultMaxScore       = 10_000
	defaultDuplicateRatio = 0.05
	defaultTimeout        = 30 * time.Second
	defaultRunTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:8000", "Base URL of the service")
		players        = flag.Int("players", defaultPlayers, "Number of players to register")
		submissions    = flag.Int("submissions", defaultSubmissions, "Number of score submissions to send")
		topN           = flag.Int("top", defaultTopN, "Leaderboard depth fetched during verification")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkerFactor, "Number of concurrent workers")
		maxScore       = flag.Int64("max-score", defaultMaxScore, "Upper bound for random scores")
		duplicateRatio = flag.Float64("duplicates", defaultDuplicateRatio, "Share of submissions replayed with a used token")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:        *baseURL,
		Players:        *players,
		Submissions:    *submissions,
		Workers:        *workers,
		TopN:           *topN,
		MaxScore:       *maxScore,
		DuplicateRatio: *duplicateRatio,
		Timeout:        *timeout,
		Verbose:        *verbose,
	}

	if err := loadgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
