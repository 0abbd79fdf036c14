package roomctx

import "testing"

func TestTracker_SetGetClear(t *testing.T) {
	tr := NewTracker()

	if _, ok := tr.Get("bob"); ok {
		t.Fatalf("fresh tracker must be empty")
	}

	prev, changed := tr.Set("bob", "alice_bob")
	if prev != "" || !changed {
		t.Fatalf("Set = %q, %v", prev, changed)
	}
	if room, _ := tr.Get("bob"); room != "alice_bob" {
		t.Fatalf("Get = %q", room)
	}
	if _, changed := tr.Set("bob", "alice_bob"); changed {
		t.Fatalf("same room must not report a change")
	}

	prev, changed = tr.Set("bob", "group_team")
	if prev != "alice_bob" || !changed {
		t.Fatalf("switch = %q, %v", prev, changed)
	}
	if tr.InContext("bob", "alice_bob") {
		t.Fatalf("bob left alice_bob")
	}
	if !tr.InContext("bob", "group_team") {
		t.Fatalf("bob must be in group_team")
	}

	tr.Clear("bob")
	if _, ok := tr.Get("bob"); ok {
		t.Fatalf("Clear must forget the context")
	}
}

func TestTracker_EmptyRoomClears(t *testing.T) {
	tr := NewTracker()
	tr.Set("bob", "alice_bob")

	prev, changed := tr.Set("bob", "")
	if prev != "alice_bob" || !changed {
		t.Fatalf("Set empty = %q, %v", prev, changed)
	}
	if _, ok := tr.Get("bob"); ok {
		t.Fatalf("empty room must clear the context")
	}
	if tr.InContext("bob", "") {
		t.Fatalf("empty room is never a context")
	}
}

func TestTracker_ClearIf(t *testing.T) {
	tr := NewTracker()
	tr.Set("bob", "group_team")

	if tr.ClearIf("bob", "alice_bob") {
		t.Fatalf("ClearIf must not touch another room")
	}
	if !tr.ClearIf("bob", "group_team") {
		t.Fatalf("ClearIf must clear the matching room")
	}
}

func TestTracker_FocusedOn(t *testing.T) {
	tr := NewTracker()
	tr.Set("alice", "group_team")
	tr.Set("bob", "group_team")
	tr.Set("carol", "alice_carol")

	got := tr.FocusedOn("group_team", []string{"alice", "bob", "carol", "dave"})
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("FocusedOn = %v", got)
	}
}
