package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDispatch(t *testing.T) {
	em := NewEmitter()
	var got []string
	em.AddListener("load", func(ev Event) { got = append(got, "a:"+ev.Type) })
	em.AddListener("load", func(ev Event) { got = append(got, "b:"+ev.Type) })
	em.AddListener("error", func(Event) { got = append(got, "error") })

	n := em.Emit(Event{Type: "load"})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a:load", "b:load"}, got)
	assert.Equal(t, 0, em.Emit(Event{Type: "other"}))
}

func TestEmitterRemoveListener(t *testing.T) {
	em := NewEmitter()
	count := 0
	id := em.AddListener("load", func(Event) { count++ })
	em.AddListener("load", func(Event) {})

	assert.True(t, em.RemoveListener("load", id))
	assert.False(t, em.RemoveListener("load", id))
	em.Emit(Event{Type: "load"})
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, em.ListenerCount("load"))
}

func TestEmitterCarriesError(t *testing.T) {
	em := NewEmitter()
	boom := errors.New("boom")
	var got error
	em.AddListener("error", func(ev Event) { got = ev.Err })
	em.Emit(Event{Type: "error", Err: boom})
	assert.ErrorIs(t, got, boom)
}

func TestEmitterRemoveDuringDispatch(t *testing.T) {
	em := NewEmitter()
	calls := 0
	var second ListenerID
	em.AddListener("x", func(Event) {
		calls++
		em.RemoveListener("x", second)
	})
	second = em.AddListener("x", func(Event) { calls++ })

	em.Emit(Event{Type: "x"})
	assert.Equal(t, 2, calls, "removal applies to the next emit")
	em.Emit(Event{Type: "x"})
	assert.Equal(t, 3, calls)
}

func TestSlotSubscribeAndReplace(t *testing.T) {
	em := NewEmitter()
	s := NewSlot(em, "load")
	first, second := 0, 0

	s.Set(func(Event) { first++ }, nil)
	assert.Equal(t, SlotSubscribed, s.State())
	em.Emit(Event{Type: "load"})

	s.Set(func(Event) { second++ }, nil)
	em.Emit(Event{Type: "load"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, em.ListenerCount("load"))
}

func TestSlotFiresImmediately(t *testing.T) {
	em := NewEmitter()
	s := NewSlot(em, "load")
	calls := 0

	s.Set(func(ev Event) {
		calls++
		assert.Equal(t, "load", ev.Type)
	}, &Event{Type: "load"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, SlotFired, s.State())
	assert.Equal(t, 0, em.ListenerCount("load"))
}

func TestSlotClear(t *testing.T) {
	em := NewEmitter()
	s := NewSlot(em, "error")
	s.Set(func(Event) {}, nil)
	s.Set(nil, nil)
	assert.Equal(t, SlotUnset, s.State())
	assert.Nil(t, s.Handler())
	assert.Equal(t, 0, em.ListenerCount("error"))
}

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := NewLoop()
	var order []int
	l.Post(func() {
		order = append(order, 1)
		l.Post(func() { order = append(order, 3) })
	})
	l.Post(func() { order = append(order, 2) })

	assert.True(t, l.Pending())
	assert.Equal(t, 3, l.RunPending())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.False(t, l.Pending())
}

func TestLoopGoPostsCompletion(t *testing.T) {
	l := NewLoop()
	release := make(chan struct{})
	done := false

	l.Go(func() func() {
		<-release
		return func() { done = true }
	})
	assert.True(t, l.Pending())
	assert.Equal(t, 0, l.RunPending())
	assert.False(t, done)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.True(t, done)
	assert.False(t, l.Pending())
}

func TestLoopRunHonorsContext(t *testing.T) {
	l := NewLoop()
	block := make(chan struct{})
	defer close(block)
	l.Go(func() func() {
		<-block
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestLoopWaitTimeout(t *testing.T) {
	l := NewLoop()
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
