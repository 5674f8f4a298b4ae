package repository

import (
	"fmt"

	"github.com/leaderforge/leaderforge/internal/errs"
)

// Sentinel kinds for store errors. Each wraps a taxonomy kind so callers can
// classify with errors.Is without importing this package.
var (
	ErrPlayerNotFound  = fmt.Errorf("player %w", errs.ErrNotFound)
	ErrEntryNotFound   = fmt.Errorf("leaderboard entry %w", errs.ErrNotFound)
	ErrDuplicatePlayer = fmt.Errorf("player id already registered: %w", errs.ErrInvalidArgument)
)
