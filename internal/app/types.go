package app

import (
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/model"
)

// SubmitRequest carries one score submission.
type SubmitRequest struct {
	PlayerID     string `json:"player_id"`
	Score        int64  `json:"score"`
	Mode         string `json:"mode,omitempty"`
	RequestToken string `json:"request_token,omitempty"`
}

// SubmitResult is the outcome of an applied (or deduplicated) submission.
type SubmitResult struct {
	PlayerID     string `json:"player_id"`
	DisplayName  string `json:"display_name"`
	TotalScore   int64  `json:"total_score"`
	SessionCount int64  `json:"session_count"`
	Rank         int64  `json:"rank,omitempty"`
	Duplicate    bool   `json:"duplicate"`
}

// TopPlayers is the cached snapshot served for top-N queries.
type TopPlayers struct {
	Entries      []model.RankedEntry `json:"entries"`
	TotalPlayers int64               `json:"total_players"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// PlayerRank is the cached snapshot served for single-player rank queries.
type PlayerRank struct {
	model.RankedEntry
	Percentile   float64 `json:"percentile"`
	TotalPlayers int64   `json:"total_players"`
}
