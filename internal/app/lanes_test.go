package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLanesSameRoomRunsInSubmissionOrder(t *testing.T) {
	t.Parallel()
	l := NewLanes()

	gate := make(chan struct{})
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = l.Do(context.Background(), "room-seq", func(ctx context.Context) (any, error) {
			<-gate
			mu.Lock()
			order = append(order, 0)
			mu.Unlock()
			return nil, nil
		})
	}()
	// Give the first job time to occupy the lane, then enqueue the rest
	// with spacing that fixes their submission order.
	time.Sleep(20 * time.Millisecond)
	for i := 1; i <= 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Do(context.Background(), "room-seq", func(ctx context.Context) (any, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil, nil
			})
		}()
		time.Sleep(20 * time.Millisecond)
	}
	close(gate)
	wg.Wait()

	if len(order) != 5 {
		t.Fatalf("expected 5 executions, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("execution order %v, want 0..4", order)
		}
	}
}

func TestLanesDifferentRoomsDoNotBlockEachOther(t *testing.T) {
	t.Parallel()
	l := NewLanes()

	gate := make(chan struct{})
	blocked := make(chan struct{})
	go func() {
		_, _ = l.Do(context.Background(), "room-slow", func(ctx context.Context) (any, error) {
			close(blocked)
			<-gate
			return nil, nil
		})
	}()
	<-blocked

	done := make(chan struct{})
	go func() {
		_, _ = l.Do(context.Background(), "room-fast", func(ctx context.Context) (any, error) {
			return nil, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation on an independent room was blocked")
	}
	close(gate)
}

func TestLanesCallerCancellationDoesNotAbortOperation(t *testing.T) {
	t.Parallel()
	l := NewLanes()

	finished := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Do(ctx, "room-detach", func(ctx context.Context) (any, error) {
		time.Sleep(150 * time.Millisecond)
		close(finished)
		return nil, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error for the waiting caller, got %v", err)
	}

	// The operation itself must still run to completion in the background.
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("operation was aborted with its caller")
	}
}

func TestLanesPropagatesResultAndError(t *testing.T) {
	t.Parallel()
	l := NewLanes()

	v, err := l.Do(context.Background(), "room-ok", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil || v.(int) != 42 {
		t.Fatalf("got (%v, %v), want (42, nil)", v, err)
	}

	boom := errors.New("boom")
	_, err = l.Do(context.Background(), "room-err", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}

func TestLanesRetireWhenDrained(t *testing.T) {
	t.Parallel()
	l := NewLanes()

	for i := 0; i < 3; i++ {
		if _, err := l.Do(context.Background(), "room-retire", func(ctx context.Context) (any, error) {
			return nil, nil
		}); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for {
		l.mu.Lock()
		n := len(l.lanes)
		l.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected drained lanes to retire, %d still mapped", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
