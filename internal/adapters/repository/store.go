// Package repository defines the durable store interface and errors.
//
// The store keeps two tables with a one-way write dependency: an append-only
// score event log and the materialized per-player aggregate. A submission
// touches both inside one atomic operation; the aggregate is never recomputed
// from a scan.
package repository

import (
	"context"

	"github.com/leaderforge/leaderforge/internal/domain/model"
)

// Store provides read/write access to players, events and aggregates.
//
// Ordering contract: TopN and RankOf use the same total order, total_score
// descending with player_id ascending as tie-break, so every player holds a
// distinct 1-based rank.
type Store interface {
	// CreatePlayer registers a new player. Fails with an InvalidArgument kind
	// if the id is already taken.
	CreatePlayer(ctx context.Context, p model.Player) error

	// GetPlayer returns the player record, or a NotFound kind.
	GetPlayer(ctx context.Context, playerID string) (model.Player, error)

	// AtomicUpsertIncrement appends the score event and creates-or-increments
	// the player's leaderboard entry in one indivisible operation. Two
	// concurrent calls for the same player must both be applied in full
	// (lost updates are a correctness bug). Returns the new aggregate state.
	AtomicUpsertIncrement(ctx context.Context, ev model.ScoreEvent, displayName string) (model.LeaderboardEntry, error)

	// GetEntry returns the player's leaderboard entry, or a NotFound kind if
	// the player has never submitted a score.
	GetEntry(ctx context.Context, playerID string) (model.LeaderboardEntry, error)

	// TopN returns the first n entries under the total order.
	TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error)

	// RankOf returns the player's 1-based position under the total order,
	// or a NotFound kind if the player has no entry.
	RankOf(ctx context.Context, playerID string) (int64, error)

	// Count returns the number of leaderboard entries.
	Count(ctx context.Context) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
