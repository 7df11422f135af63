package fetcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBroadcaster(t *testing.T) *Broadcaster {
	t.Helper()

	bc := NewBroadcaster(8, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bc.Run(ctx)

	return bc
}

func receiveEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()

	select {
	case e := <-sub.C:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	bc := newTestBroadcaster(t)

	first := bc.Subscribe()
	second := bc.Subscribe()
	defer bc.Unsubscribe(first)
	defer bc.Unsubscribe(second)

	bc.Publish(Event{Status: StatusStarted, Message: "hello"})

	assert.Equal(t, "hello", receiveEvent(t, first).Message)
	assert.Equal(t, "hello", receiveEvent(t, second).Message)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	bc := newTestBroadcaster(t)

	sub := bc.Subscribe()
	bc.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)

	// Double unsubscribe must be harmless.
	bc.Unsubscribe(sub)
}

func TestBroadcaster_UnsubscribedObserverGetsNothing(t *testing.T) {
	bc := newTestBroadcaster(t)

	gone := bc.Subscribe()
	stays := bc.Subscribe()
	defer bc.Unsubscribe(stays)

	bc.Unsubscribe(gone)
	bc.Publish(Event{Status: StatusProgress, Message: "tick"})

	assert.Equal(t, "tick", receiveEvent(t, stays).Message)
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bc := newTestBroadcaster(t)

	slow := bc.Subscribe() // never read
	defer bc.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*4; i++ {
			bc.Publish(Event{Status: StatusProgress, Current: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBroadcaster_ConcurrentSubscribeUnsubscribePublish(t *testing.T) {
	bc := newTestBroadcaster(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := bc.Subscribe()
				bc.Publish(Event{Status: StatusProgress, Current: j})
				bc.Unsubscribe(sub)
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent pub/sub deadlocked")
	}

	// The observer set survives the churn.
	sub := bc.Subscribe()
	defer bc.Unsubscribe(sub)
	bc.Publish(Event{Status: StatusCompleted})
	require.Equal(t, StatusCompleted, receiveEvent(t, sub).Status)
}
