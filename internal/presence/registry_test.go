package presence

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(r *Registry[int], start time.Time) *time.Time {
	cur := start
	r.now = func() time.Time { return cur }
	return &cur
}

func TestRegistry_OnlineOffline(t *testing.T) {
	r := NewRegistry[int]()
	t0 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(r, t0)

	if !r.MarkOnline("alice", 1) {
		t.Fatalf("first MarkOnline must report wasOffline")
	}
	if !r.IsOnline("alice") {
		t.Fatalf("alice must be online")
	}
	if ts, ok := r.LastSeen("alice"); !ok || !ts.Equal(t0) {
		t.Fatalf("LastSeen = %v, %v", ts, ok)
	}

	*clock = t0.Add(time.Minute)
	if !r.MarkOffline("alice") {
		t.Fatalf("MarkOffline must report a transition")
	}
	if r.IsOnline("alice") {
		t.Fatalf("alice must be offline")
	}
	if ts, _ := r.LastSeen("alice"); !ts.Equal(t0.Add(time.Minute)) {
		t.Fatalf("LastSeen after offline = %v", ts)
	}
	if r.MarkOffline("alice") {
		t.Fatalf("second MarkOffline must be a no-op")
	}
}

func TestRegistry_LastConnectionWins(t *testing.T) {
	r := NewRegistry[int]()

	r.MarkOnline("bob", 1)
	if r.MarkOnline("bob", 2) {
		t.Fatalf("second connection must not report wasOffline")
	}
	if h, _ := r.Handle("bob"); h != 2 {
		t.Fatalf("handle = %d, want 2", h)
	}

	// старая вкладка закрылась: новая остаётся в сети
	if r.Release("bob", 1) {
		t.Fatalf("stale handle must not release")
	}
	if !r.IsOnline("bob") {
		t.Fatalf("bob must stay online")
	}
	if !r.Release("bob", 2) {
		t.Fatalf("current handle must release")
	}
	if r.IsOnline("bob") {
		t.Fatalf("bob must be offline")
	}
}

func TestRegistry_OnlineSnapshotSorted(t *testing.T) {
	r := NewRegistry[int]()
	r.MarkOnline("carol", 1)
	r.MarkOnline("alice", 2)
	r.MarkOnline("bob", 3)

	got := r.Online()
	want := []string{"alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("Online = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Online = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.MarkOnline("u", i)
			r.IsOnline("u")
			r.Release("u", i)
		}(i)
	}
	wg.Wait()

	// каждый Release снимал только свой хэндл; последний записавший мог остаться
	if h, ok := r.Handle("u"); ok {
		r.Release("u", h)
	}
	if r.IsOnline("u") {
		t.Fatalf("u must be offline after releasing the current handle")
	}
}
