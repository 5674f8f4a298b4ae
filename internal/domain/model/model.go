// Package model contains domain models passed between layers.
package model

import "time"

// Player is the immutable identity created at registration. DisplayName is
// denormalized into the leaderboard entry for read efficiency.
type Player struct {
	ID          string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoreEvent is an immutable fact: one score submitted by one player.
// Events are append-only; they are never mutated after being recorded.
type ScoreEvent struct {
	PlayerID   string    `json:"player_id"`
	Score      int64     `json:"score"`
	Mode       string    `json:"mode"` // e.g. "solo", "team"
	RecordedAt time.Time `json:"recorded_at"`
}

// LeaderboardEntry is the materialized per-player aggregate. TotalScore and
// SessionCount always equal the sum and count of that player's score events;
// the repository enforces this with a single atomic upsert-increment.
type LeaderboardEntry struct {
	PlayerID     string    `json:"player_id"`
	DisplayName  string    `json:"display_name"`
	TotalScore   int64     `json:"total_score"`
	SessionCount int64     `json:"session_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

// RankedEntry pairs a leaderboard entry with its 1-based position under the
// total order (total_score desc, player_id asc). The id tie-break makes the
// order total, so ranks are bijective: no two players share one.
type RankedEntry struct {
	Rank int64 `json:"rank"`
	LeaderboardEntry
}
