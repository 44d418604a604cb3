package events

import (
	"context"
	"sync"
	"time"
)

// Loop is a cooperative task queue. Tasks posted from any goroutine run on
// the goroutine that calls RunPending or Run, one at a time.
type Loop struct {
	mu       sync.Mutex
	tasks    []func()
	inflight int
	wake     chan struct{}
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on a new goroutine and posts the completion it returns back
// to the loop. The loop counts the work as pending until the completion has
// been queued. A nil completion posts nothing.
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		done := work()

		l.mu.Lock()
		l.inflight--
		if done != nil {
			l.tasks = append(l.tasks, done)
		}
		l.mu.Unlock()
		l.signal()
	}()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunPending runs queued tasks, including tasks they post, until the queue
// is empty. It returns the number of tasks run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return n
		}
		t := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		t()
		n++
	}
}

// Pending reports whether tasks are queued or background work is in flight.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) > 0 || l.inflight > 0
}

// Wait blocks until a task may have been posted, d elapses, or ctx is done.
// A non-positive d waits without a deadline.
func (l *Loop) Wait(ctx context.Context, d time.Duration) error {
	var timeout <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-l.wake:
	case <-timeout:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Run runs tasks until nothing is queued or in flight, or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		if !l.Pending() {
			return nil
		}
		l.mu.Lock()
		queued := len(l.tasks) > 0
		l.mu.Unlock()
		if queued {
			continue
		}
		if err := l.Wait(ctx, 0); err != nil {
			return err
		}
	}
}
