package core

import (
	"fmt"
	"slices"
	"testing"
)

func TestHistoryEvictsOldestFirst(t *testing.T) {
	store := NewHistoryStore(HistoryCapacity)
	store.Init("Den")

	for i := 1; i <= 11; i++ {
		if !store.Append("Den", fmt.Sprintf("alice: msg%d", i)) {
			t.Fatalf("append %d failed", i)
		}
	}

	got, ok := store.Backlog("Den")
	if !ok {
		t.Fatal("backlog missing")
	}
	want := make([]string, 0, 10)
	for i := 2; i <= 11; i++ {
		want = append(want, fmt.Sprintf("alice: msg%d", i))
	}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected backlog:\n got %v\nwant %v", got, want)
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	store := NewHistoryStore(3)
	store.Init("r")
	for i := range 50 {
		store.Append("r", fmt.Sprint(i))
		got, _ := store.Backlog("r")
		if len(got) > 3 {
			t.Fatalf("backlog grew to %d", len(got))
		}
	}
	got, _ := store.Backlog("r")
	if !slices.Equal(got, []string{"47", "48", "49"}) {
		t.Fatalf("unexpected tail: %v", got)
	}
}

func TestHistoryUnknownRoom(t *testing.T) {
	store := NewHistoryStore(0)
	if store.Append("ghost", "x") {
		t.Fatal("append to unknown room should fail")
	}
	if _, ok := store.Backlog("ghost"); ok {
		t.Fatal("unknown room should have no backlog")
	}

	store.Init("r")
	got, ok := store.Backlog("r")
	if !ok || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil backlog, got %#v", got)
	}

	store.Drop("r")
	if _, ok := store.Backlog("r"); ok {
		t.Fatal("dropped backlog still present")
	}
}

func TestHistoryBacklogIsCopy(t *testing.T) {
	store := NewHistoryStore(0)
	store.Init("r")
	store.Append("r", "a: 1")

	got, _ := store.Backlog("r")
	got[0] = "tampered"

	again, _ := store.Backlog("r")
	if again[0] != "a: 1" {
		t.Fatalf("backlog mutated through copy: %v", again)
	}
}
