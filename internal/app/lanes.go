package app

import (
	"context"
	"sync"

	"github.com/Enoch-015/Kali-E/internal/domain"
)

// Op is one orchestrator operation executed on a lane.
type Op func(ctx context.Context) (any, error)

type laneResult struct {
	value any
	err   error
}

type laneJob struct {
	ctx  context.Context
	op   Op
	done chan laneResult
}

type lane struct {
	queue   []*laneJob
	running bool
}

// Lanes serializes operations per room: jobs for one room run one at a
// time in submission order, while different rooms proceed in parallel.
// This is the bridge between request handlers and the long-lived session
// machinery.
type Lanes struct {
	mu    sync.Mutex
	lanes map[domain.RoomName]*lane
}

func NewLanes() *Lanes {
	return &Lanes{lanes: make(map[domain.RoomName]*lane)}
}

// Do runs op on the room's lane and blocks until it finishes or ctx is
// done. If the caller gives up first, the operation still runs to
// completion in the background: a half-connected room is never a valid
// outcome, so only the wait is abandoned.
func (l *Lanes) Do(ctx context.Context, room domain.RoomName, op Op) (any, error) {
	job := &laneJob{
		// Detach the op from caller cancellation but keep its values.
		ctx:  context.WithoutCancel(ctx),
		op:   op,
		done: make(chan laneResult, 1),
	}

	l.mu.Lock()
	ln, ok := l.lanes[room]
	if !ok {
		ln = &lane{}
		l.lanes[room] = ln
	}
	ln.queue = append(ln.queue, job)
	if !ln.running {
		ln.running = true
		go l.run(room, ln)
	}
	l.mu.Unlock()

	select {
	case res := <-job.done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run drains the lane's queue and retires the lane when it is empty.
func (l *Lanes) run(room domain.RoomName, ln *lane) {
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			ln.running = false
			delete(l.lanes, room)
			l.mu.Unlock()
			return
		}
		job := ln.queue[0]
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		value, err := job.op(job.ctx)
		job.done <- laneResult{value: value, err: err}
	}
}
