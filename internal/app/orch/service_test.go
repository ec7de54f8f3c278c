package orch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Enoch-015/Kali-E/internal/app"
	"github.com/Enoch-015/Kali-E/internal/auth"
)

func newTestService(transport *fakeTransport, factory *fakeFactory) (*Service, *fakeRecorder) {
	o, recorder := newTestOrchestrator(transport, factory)
	return &Service{
		Orch:      o,
		Lanes:     app.NewLanes(),
		Issuer:    o.Issuer,
		Allocator: &app.Allocator{},
		URL:       "wss://livekit.example.com",
	}, recorder
}

func TestConcurrentStartsSingleConnect(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{delay: 50 * time.Millisecond}
	svc, _ := newTestService(transport, &fakeFactory{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]StartResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.StartSession(context.Background(), "room-race")
		}()
	}
	wg.Wait()

	created := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("start %d failed: %v", i, errs[i])
		}
		if results[i].Created {
			created++
		}
		if results[i].Session != results[0].Session {
			t.Fatal("all callers must observe the same handle")
		}
	}
	if created != 1 {
		t.Fatalf("created count = %d, want 1", created)
	}
	if transport.connectCount() != 1 {
		t.Fatalf("connects = %d, want exactly 1", transport.connectCount())
	}
	if svc.Orch.Registry.Len() != 1 {
		t.Fatal("registry must hold exactly one session")
	}
}

func TestMessagesOnDifferentRoomsRunInParallel(t *testing.T) {
	t.Parallel()
	// Room A's connect is slow; a message to room B must not wait for it.
	transport := &fakeTransport{delay: 150 * time.Millisecond, delayFor: "room-a"}
	svc, _ := newTestService(transport, &fakeFactory{})

	slow := make(chan error, 1)
	go func() {
		slow <- svc.SendMessage(context.Background(), "room-a", "hello a")
	}()
	time.Sleep(10 * time.Millisecond) // let room-a occupy its lane first

	start := time.Now()
	if err := svc.SendMessage(context.Background(), "room-b", "hello b"); err != nil {
		t.Fatalf("room-b send failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 140*time.Millisecond {
		t.Fatalf("room-b waited %v on room-a's lane", elapsed)
	}

	if err := <-slow; err != nil {
		t.Fatalf("room-a send failed: %v", err)
	}
}

func TestSendAndEndOnSameRoomSerialize(t *testing.T) {
	t.Parallel()
	transport := &fakeTransport{}
	factory := &fakeFactory{}
	svc, _ := newTestService(transport, factory)

	if _, err := svc.StartSession(context.Background(), "room-serial"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = svc.SendMessage(context.Background(), "room-serial", "one last thing")
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.EndSession(context.Background(), "room-serial", "done")
	}()
	wg.Wait()

	// Whatever order the lane chose, the registry ends consistent: either
	// the message re-bootstrapped a fresh session or the room is empty.
	if n := svc.Orch.Registry.Len(); n > 1 {
		t.Fatalf("registry holds %d sessions for one room", n)
	}
}

func TestEndSessionNotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(&fakeTransport{}, &fakeFactory{})

	ended, err := svc.EndSession(context.Background(), "room-ghost", "bye")
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended {
		t.Fatal("ending an absent room must report not found")
	}
}

func TestCreateCredentialForNewRoom(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(&fakeTransport{}, &fakeFactory{})

	grant, err := svc.CreateCredentialForNewRoom(context.Background(), "", "")
	if err != nil {
		t.Fatalf("credential failed: %v", err)
	}
	if grant.Token == "" {
		t.Fatal("empty token")
	}
	if grant.Room == "" || grant.Identity == "" {
		t.Fatalf("grant missing allocation: %+v", grant)
	}
	if grant.URL != "wss://livekit.example.com" {
		t.Fatalf("url = %q", grant.URL)
	}

	// Explicit identity and room pass through untouched.
	grant, err = svc.CreateCredentialForNewRoom(context.Background(), "alice", "room-fixed")
	if err != nil {
		t.Fatalf("credential failed: %v", err)
	}
	if grant.Identity != "alice" || grant.Room != "room-fixed" {
		t.Fatalf("grant = %+v", grant)
	}
}

func TestCreateCredentialMissingSecret(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(&fakeTransport{}, &fakeFactory{})
	svc.Issuer = auth.NewIssuer("", "", time.Hour)

	if _, err := svc.CreateCredentialForNewRoom(context.Background(), "bob", "room-x"); err == nil {
		t.Fatal("expected a config error without signing material")
	}
}
