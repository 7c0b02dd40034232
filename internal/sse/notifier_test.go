package sse_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-eventreg/internal/models"
	"ms-eventreg/internal/sse"
)

func receiveOne(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	notifier := sse.NewNotifier()
	ctx := context.Background()

	first := notifier.Subscribe(ctx)
	second := notifier.Subscribe(ctx)
	assert.Equal(t, 2, notifier.ClientCount())

	sent := models.Notification{Title: "New Event just got scheduled!", Body: "details"}
	notifier.Publish(sent)

	assert.Equal(t, sent, receiveOne(t, first))
	assert.Equal(t, sent, receiveOne(t, second))
}

func TestLateSubscriberMissesEarlierNotifications(t *testing.T) {
	notifier := sse.NewNotifier()

	notifier.Publish(models.Notification{Title: "before anyone connected"})

	ch := notifier.Subscribe(context.Background())
	select {
	case n := <-ch:
		t.Fatalf("late subscriber received replayed notification %q", n.Title)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	notifier := sse.NewNotifier()
	ch := notifier.Subscribe(context.Background())

	// Overflow the subscriber buffer. Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 25; i++ {
			notifier.Publish(models.Notification{Title: "burst"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The subscriber kept at most its buffer's worth.
	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.LessOrEqual(t, received, 10)
			return
		}
	}
}

func TestSubscriberRemovedOnContextCancel(t *testing.T) {
	notifier := sse.NewNotifier()

	ctx, cancel := context.WithCancel(context.Background())
	ch := notifier.Subscribe(ctx)
	require.Equal(t, 1, notifier.ClientCount())

	cancel()

	// Removal is asynchronous.
	deadline := time.Now().Add(time.Second)
	for notifier.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not removed after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The channel is closed so the reader loop terminates.
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}

	// Publishing after removal must not panic.
	notifier.Publish(models.Notification{Title: "after disconnect"})
}

func TestPublishDuringConcurrentDisconnects(t *testing.T) {
	notifier := sse.NewNotifier()

	// Persistent subscribers that drain so publishers always have
	// someone to deliver to.
	for i := 0; i < 20; i++ {
		ch := notifier.Subscribe(context.Background())
		go func() {
			for range ch {
			}
		}()
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	// Publishers hammering the fan-out.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					notifier.Publish(models.Notification{Title: "burst"})
				}
			}
		}()
	}

	// Subscribers connecting and disconnecting mid-publish. A
	// disconnect closes the channel, which must never race a send.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					ctx, cancel := context.WithCancel(context.Background())
					ch := notifier.Subscribe(ctx)
					cancel()
					for range ch {
					}
				}
			}
		}()
	}

	time.Sleep(500 * time.Millisecond)
	close(done)
	wg.Wait()
}
