package cache

import "fmt"

// Cache keys are deterministic functions of query shape. The set of possible
// limits is open-ended, so submissions invalidate the whole TopPrefix rather
// than enumerating keys.
const (
	// TopPrefix covers every cached top-N snapshot.
	TopPrefix = "top:"

	// RankPrefix covers per-player rank snapshots.
	RankPrefix = "rank:"
)

// TopKey returns the cache key for a top-N query of the given limit.
func TopKey(limit int) string {
	return fmt.Sprintf("%s%d", TopPrefix, limit)
}

// RankKey returns the cache key for a player's rank snapshot.
func RankKey(playerID string) string {
	return RankPrefix + playerID
}
