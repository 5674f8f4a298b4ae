// Package loadgen drives a running leaderboard service with synthetic
// traffic and verifies the board it produces.
package loadgen

import (
	"errors"
	"time"
)

// Config controls a load generation run.
type Config struct {
	// BaseURL of the service under test, e.g. http://localhost:8000.
	BaseURL string

	// Players is how many players to register before submitting.
	Players int

	// Submissions is the total number of score submissions to send.
	Submissions int

	// Workers is the number of concurrent submitters.
	Workers int

	// TopN is the leaderboard depth fetched during verification.
	TopN int

	// MaxScore bounds the random score of each submission.
	MaxScore int64

	// DuplicateRatio is the share of submissions replayed with a token
	// they already used, exercising the idempotency path. Range [0, 1).
	DuplicateRatio float64

	// Timeout applies to every HTTP request.
	Timeout time.Duration

	// Verbose enables per-second progress logging.
	Verbose bool
}

func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base URL is required")
	case c.Players < 1:
		return errors.New("at least one player is required")
	case c.Submissions < 1:
		return errors.New("at least one submission is required")
	case c.Workers < 1:
		return errors.New("at least one worker is required")
	case c.DuplicateRatio < 0 || c.DuplicateRatio >= 1:
		return errors.New("duplicate ratio must be in [0, 1)")
	}
	return nil
}
