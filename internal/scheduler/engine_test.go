package scheduler

import (
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Trigger{Kind: KindRollover, At: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule rollover: %v", err)
	}
	if err := engine.Schedule(Trigger{Kind: KindSync, At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sync: %v", err)
	}

	first := waitTrigger(t, engine.C(), time.Second)
	second := waitTrigger(t, engine.C(), time.Second)
	if first.Kind != KindSync || second.Kind != KindRollover {
		t.Fatalf("unexpected order: first=%s second=%s", first.Kind, second.Kind)
	}
}

func TestScheduleWithKeyReplacesPending(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(Trigger{Key: "sync", Kind: KindSync, At: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := engine.Schedule(Trigger{Key: "sync", Kind: KindSync, At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got := engine.Pending(); got != 1 {
		t.Fatalf("expected one pending trigger, got %d", got)
	}

	tr := waitTrigger(t, engine.C(), time.Second)
	if tr.Key != "sync" {
		t.Fatalf("unexpected trigger %+v", tr)
	}
	if got := engine.Pending(); got != 0 {
		t.Fatalf("expected empty queue, got %d", got)
	}
}

func TestCancelRemovesPending(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	if err := engine.After(30*time.Millisecond, Trigger{Key: "rollover", Kind: KindRollover}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !engine.Cancel("rollover") {
		t.Fatal("expected cancel to find the trigger")
	}
	if engine.Cancel("rollover") {
		t.Fatal("second cancel should report nothing pending")
	}

	select {
	case tr := <-engine.C():
		t.Fatalf("cancelled trigger fired: %+v", tr)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(Trigger{Kind: KindSync, At: at}); err != nil {
			t.Fatalf("schedule trigger: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped triggers > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesTriggerTime(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Trigger{Kind: KindSync}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestScheduleAfterStop(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if err := engine.After(time.Millisecond, Trigger{Kind: KindSync}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if _, ok := <-engine.C(); ok {
		t.Fatal("expected closed channel after stop")
	}
}

func TestNextMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 2, 28, 21, 30, 0, 0, time.UTC) // 02:30 on Mar 1 in loc
	got := NextMidnight(now, loc)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("NextMidnight = %v, want %v", got, want)
	}
}

func waitTrigger(t *testing.T, ch <-chan Trigger, timeout time.Duration) Trigger {
	t.Helper()
	select {
	case tr := <-ch:
		return tr
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for trigger")
		return Trigger{}
	}
}
