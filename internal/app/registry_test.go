package app

import (
	"sync"
	"testing"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

func activeSession(room domain.RoomName) *Session {
	s := NewSession(room)
	s.To(domain.StatusConnecting)
	s.To(domain.StatusActive)
	return s
}

func TestRegistryInsertRejectsSecondLiveSession(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	first := activeSession("room-a1b2c3d4")
	if !r.Insert(first) {
		t.Fatal("first insert should succeed")
	}
	second := activeSession("room-a1b2c3d4")
	if r.Insert(second) {
		t.Fatal("second insert for an occupied room must be rejected")
	}

	got, ok := r.Get("room-a1b2c3d4")
	if !ok || got != first {
		t.Fatalf("registry should still hold the first session, got %v", got)
	}
}

func TestRegistryConcurrentInsertsOneWinner(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan *Session, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := activeSession("room-contended")
			if r.Insert(s) {
				wins <- s
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []*Session
	for s := range wins {
		winners = append(winners, s)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly 1 successful insert, got %d", len(winners))
	}
	if got, ok := r.Get("room-contended"); !ok || got != winners[0] {
		t.Fatal("registered session is not the winner")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", r.Len())
	}
}

func TestRegistryGetTreatsTerminalAsAbsent(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	s := activeSession("room-dead")
	if !r.Insert(s) {
		t.Fatal("insert failed")
	}
	s.To(domain.StatusEnding)
	s.To(domain.StatusClosed)

	if _, ok := r.Get("room-dead"); ok {
		t.Fatal("closed session must be treated as absent")
	}
	// The stale entry is dropped, so a fresh session can take the room.
	if !r.Insert(activeSession("room-dead")) {
		t.Fatal("room with a closed session must accept a fresh one")
	}
}

func TestRegistryInsertDisplacesFailedLeftover(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	failed := NewSession("room-flaky")
	failed.To(domain.StatusConnecting)
	failed.Fail()
	if !r.Insert(failed) {
		t.Fatal("insert of failed leftover should succeed")
	}

	fresh := activeSession("room-flaky")
	if !r.Insert(fresh) {
		t.Fatal("failed leftover must not block a fresh session")
	}
	if got, _ := r.Get("room-flaky"); got != fresh {
		t.Fatal("fresh session should have displaced the failed one")
	}
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, ok := r.Remove("room-none"); ok {
		t.Fatal("removing an absent room should report absence")
	}

	s := activeSession("room-x")
	r.Insert(s)
	got, ok := r.Remove("room-x")
	if !ok || got != s {
		t.Fatal("remove should return the registered session")
	}
	if r.Len() != 0 {
		t.Fatal("registry should be empty after remove")
	}
}
