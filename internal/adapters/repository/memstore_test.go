package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/errs"
)

func submitScore(t *testing.T, s Store, playerID string, score int64) model.LeaderboardEntry {
	t.Helper()
	entry, err := s.AtomicUpsertIncrement(context.Background(), model.ScoreEvent{
		PlayerID:   playerID,
		Score:      score,
		Mode:       "solo",
		RecordedAt: time.Now().UTC(),
	}, playerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return entry
}

func TestMemoryStore_Players(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := model.Player{ID: "p1", DisplayName: "alpha"}
	if err := s.CreatePlayer(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DisplayName != "alpha" {
		t.Errorf("expected display name alpha, got %s", got.DisplayName)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be backfilled")
	}

	if err := s.CreatePlayer(ctx, p); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected invalid-argument kind on duplicate, got %v", err)
	}

	if _, err := s.GetPlayer(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not-found kind, got %v", err)
	}
}

func TestMemoryStore_UpsertIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	entry := submitScore(t, s, "p1", 500)
	if entry.TotalScore != 500 || entry.SessionCount != 1 {
		t.Errorf("expected 500/1, got %d/%d", entry.TotalScore, entry.SessionCount)
	}

	entry = submitScore(t, s, "p1", 300)
	if entry.TotalScore != 800 || entry.SessionCount != 2 {
		t.Errorf("expected 800/2, got %d/%d", entry.TotalScore, entry.SessionCount)
	}

	if got := s.EventCount(); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}

	if _, err := s.GetEntry(ctx, "p2"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not-found kind, got %v", err)
	}
}

func TestMemoryStore_ConcurrentSamesPlayerSubmissions(t *testing.T) {
	s := NewMemoryStore()

	const callers = 20
	const perCaller = 50
	const score = 10

	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				submitScore(t, s, "p1", score)
			}
		}()
	}
	wg.Wait()

	entry, err := s.GetEntry(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := int64(callers * perCaller * score); entry.TotalScore != want {
		t.Errorf("lost update: expected total %d, got %d", want, entry.TotalScore)
	}
	if want := int64(callers * perCaller); entry.SessionCount != want {
		t.Errorf("expected %d sessions, got %d", want, entry.SessionCount)
	}
}

func TestMemoryStore_TotalOrderAndRanks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// pA and pB tie on score; the id tie-break must order pA first.
	submitScore(t, s, "pB", 100)
	submitScore(t, s, "pA", 100)
	submitScore(t, s, "pC", 200)

	top, err := s.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"pC", "pA", "pB"}
	for i, want := range wantOrder {
		if top[i].PlayerID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, top[i].PlayerID)
		}
	}

	// Ranks must be bijective and agree with the TopN permutation.
	seen := make(map[int64]string)
	for i, e := range top {
		rank, err := s.RankOf(ctx, e.PlayerID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rank != int64(i)+1 {
			t.Errorf("%s: expected rank %d, got %d", e.PlayerID, i+1, rank)
		}
		if holder, dup := seen[rank]; dup {
			t.Errorf("rank %d shared by %s and %s", rank, holder, e.PlayerID)
		}
		seen[rank] = e.PlayerID
	}

	if _, err := s.RankOf(ctx, "ghost"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected not-found kind, got %v", err)
	}
}

func TestMemoryStore_TopNClamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	top, err := s.TopN(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected empty result on empty store, got %d", len(top))
	}

	for i := 0; i < 3; i++ {
		submitScore(t, s, fmt.Sprintf("p%d", i), int64(100*(i+1)))
	}

	top, err = s.TopN(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 3 {
		t.Errorf("expected 3 entries, got %d", len(top))
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}
