package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestDeduper_SeenAndRecord(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDeduper()

	if seen := d.SeenAndRecord(ctx, "tok-1"); seen {
		t.Error("expected new token to be unseen")
	}
	if seen := d.SeenAndRecord(ctx, "tok-1"); !seen {
		t.Error("expected repeated token to be seen")
	}
	if got := d.Size(); got != 1 {
		t.Errorf("expected size 1, got %d", got)
	}
}

func TestDeduper_Unrecord(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDeduper()

	d.SeenAndRecord(ctx, "tok-1")
	d.Unrecord(ctx, "tok-1")

	if seen := d.SeenAndRecord(ctx, "tok-1"); seen {
		t.Error("expected unrecorded token to be treated as new")
	}

	// Unrecording an unknown token is a no-op.
	d.Unrecord(ctx, "tok-unknown")
	if got := d.Size(); got != 1 {
		t.Errorf("expected size 1, got %d", got)
	}
}

func TestDeduper_BoundedEviction(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDeduper(WithMaxSize(3))

	for i := 0; i < 3; i++ {
		d.SeenAndRecord(ctx, fmt.Sprintf("tok-%d", i))
	}
	// Recording a fourth token must evict the oldest (tok-0).
	d.SeenAndRecord(ctx, "tok-3")

	if got := d.Size(); got != 3 {
		t.Errorf("expected size 3, got %d", got)
	}
	if seen := d.SeenAndRecord(ctx, "tok-0"); seen {
		t.Error("expected evicted token to be treated as new")
	}
	if seen := d.SeenAndRecord(ctx, "tok-3"); !seen {
		t.Error("expected most recent token to still be seen")
	}
}

func TestDeduper_UnboundedMode(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDeduper(WithMaxSize(0))

	for i := 0; i < 1000; i++ {
		d.SeenAndRecord(ctx, fmt.Sprintf("tok-%d", i))
	}
	if got := d.Size(); got != 1000 {
		t.Errorf("expected size 1000, got %d", got)
	}
}

func TestDeduper_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDeduper(WithMaxSize(0))

	const goroutines = 16
	const perGoroutine = 200

	var wg sync.WaitGroup
	firstSeen := make([]int, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				// All goroutines race on the same token space; exactly one
				// caller per token may observe "new".
				if !d.SeenAndRecord(ctx, fmt.Sprintf("tok-%d", i)) {
					firstSeen[g]++
				}
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range firstSeen {
		total += n
	}
	if total != perGoroutine {
		t.Errorf("expected exactly %d first-seen observations, got %d", perGoroutine, total)
	}
	if got := d.Size(); got != perGoroutine {
		t.Errorf("expected size %d, got %d", perGoroutine, got)
	}
}
