package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/pkg/adapters/memory"
)

func TestManager_LockLeak(t *testing.T) {
	eng, err := coach.New("")
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	mgr := NewManager(eng, memory.NewStore())
	ctx := context.Background()

	// 1. Open and close many sessions concurrently
	const count = 2000
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("leak-%d", i)
			if _, err := mgr.Open(ctx, id); err != nil {
				t.Errorf("open %s: %v", id, err)
				return
			}
			if _, err := mgr.Close(ctx, id); err != nil {
				t.Errorf("close %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	// 2. Count locks remaining in map
	mgr.mu.Lock()
	lockCount := len(mgr.locks)
	mgr.mu.Unlock()

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Close", lockCount)
	}
}

func TestManager_GeneratedIDsAreUnique(t *testing.T) {
	eng, err := coach.New("")
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	mgr := NewManager(eng, memory.NewStore())

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := mgr.Open(context.Background(), "")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate generated id %q", s.ID)
		}
		seen[s.ID] = true
	}
}
