package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/errs"
)

// MemoryStore implements Store entirely in process memory. It backs the
// `store_backend: memory` deployment mode and the test suites; the mutex
// around the event append plus aggregate increment provides the same
// atomicity the postgres backend gets from ON CONFLICT DO UPDATE.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]model.Player
	entries map[string]model.LeaderboardEntry
	events  []model.ScoreEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[string]model.Player),
		entries: make(map[string]model.LeaderboardEntry),
	}
}

func (s *MemoryStore) CreatePlayer(ctx context.Context, p model.Player) error {
	const op = "memstore.create_player"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.players[p.ID]; exists {
		return errs.Wrap(op, ErrDuplicatePlayer)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.players[p.ID] = p
	return nil
}

func (s *MemoryStore) GetPlayer(ctx context.Context, playerID string) (model.Player, error) {
	const op = "memstore.get_player"

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.players[playerID]
	if !exists {
		return model.Player{}, errs.Wrap(op, ErrPlayerNotFound)
	}
	return p, nil
}

func (s *MemoryStore) AtomicUpsertIncrement(ctx context.Context, ev model.ScoreEvent, displayName string) (model.LeaderboardEntry, error) {
	const op = "memstore.atomic_upsert_increment"
	defer observe(op, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)

	entry, exists := s.entries[ev.PlayerID]
	if !exists {
		entry = model.LeaderboardEntry{
			PlayerID:    ev.PlayerID,
			DisplayName: displayName,
		}
	}
	entry.TotalScore += ev.Score
	entry.SessionCount++
	entry.LastUpdated = ev.RecordedAt
	s.entries[ev.PlayerID] = entry

	return entry, nil
}

func (s *MemoryStore) GetEntry(ctx context.Context, playerID string) (model.LeaderboardEntry, error) {
	const op = "memstore.get_entry"

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[playerID]
	if !exists {
		return model.LeaderboardEntry{}, errs.Wrap(op, ErrEntryNotFound)
	}
	return entry, nil
}

func (s *MemoryStore) TopN(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	const op = "memstore.top_n"
	defer observe(op, time.Now())

	s.mu.RLock()
	ordered := s.orderedLocked()
	s.mu.RUnlock()

	if n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n], nil
}

func (s *MemoryStore) RankOf(ctx context.Context, playerID string) (int64, error) {
	const op = "memstore.rank_of"
	defer observe(op, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	target, exists := s.entries[playerID]
	if !exists {
		return 0, errs.Wrap(op, ErrEntryNotFound)
	}

	var ahead int64
	for _, e := range s.entries {
		if e.TotalScore > target.TotalScore ||
			(e.TotalScore == target.TotalScore && e.PlayerID < playerID) {
			ahead++
		}
	}
	return ahead + 1, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// EventCount reports the number of recorded score events. Test helper.
func (s *MemoryStore) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// orderedLocked returns entries sorted by total_score desc, player_id asc.
// Must be called with at least a read lock held.
func (s *MemoryStore) orderedLocked() []model.LeaderboardEntry {
	ordered := make([]model.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].TotalScore != ordered[j].TotalScore {
			return ordered[i].TotalScore > ordered[j].TotalScore
		}
		return ordered[i].PlayerID < ordered[j].PlayerID
	})
	return ordered
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*PostgresStore)(nil)
