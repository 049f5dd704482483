package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Many goroutines rescheduling the same few keys must leave exactly one
// pending trigger per key, and each key fires once.
func TestEngineConcurrentKeyedReschedule(t *testing.T) {
	engine := NewEngine(64)
	engine.Start()
	defer engine.Stop()

	const keys = 4
	const writers = 16
	const rounds = 100

	start := time.Now().Add(300 * time.Millisecond)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				key := fmt.Sprintf("k%d", (w+i)%keys)
				at := start.Add(time.Duration(i%10) * time.Millisecond)
				if err := engine.Schedule(Trigger{Key: key, Kind: KindSync, At: at}); err != nil {
					t.Errorf("schedule %s: %v", key, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if got := engine.Pending(); got != keys {
		t.Fatalf("pending after reschedule storm = %d, want %d", got, keys)
	}

	seen := make(map[string]int)
	deadline := time.After(3 * time.Second)
	for len(seen) < keys {
		select {
		case tr := <-engine.C():
			seen[tr.Key]++
		case <-deadline:
			t.Fatalf("timeout: fired %v", seen)
		}
	}

	select {
	case tr := <-engine.C():
		t.Fatalf("unexpected extra trigger %+v", tr)
	case <-time.After(100 * time.Millisecond):
	}
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("key %s fired %d times", k, n)
		}
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops, got %d", engine.Dropped())
	}
}

func TestEngineUnkeyedBurstDeliversAll(t *testing.T) {
	engine := NewEngine(1024)
	engine.Start()
	defer engine.Stop()

	const producers = 8
	const each = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				kind := KindSync
				if (p+i)%3 == 0 {
					kind = KindRollover
				}
				delay := time.Duration((p*7+i)%40+5) * time.Millisecond
				if err := engine.After(delay, Trigger{Kind: kind}); err != nil {
					t.Errorf("after: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	counts := map[Kind]int{}
	deadline := time.After(5 * time.Second)
	for received := 0; received < producers*each; received++ {
		select {
		case tr := <-engine.C():
			counts[tr.Kind]++
		case <-deadline:
			t.Fatalf("timeout after %d triggers, dropped=%d", received, engine.Dropped())
		}
	}
	if counts[KindSync] == 0 || counts[KindRollover] == 0 {
		t.Fatalf("expected both kinds, got %v", counts)
	}
	if engine.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got %d", engine.Dropped())
	}
}
