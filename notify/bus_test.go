package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanout(t *testing.T) {
	b := NewBus()

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	b.Publish(Refresh{})

	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first subscriber did not receive the notification")
	}
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second subscriber did not receive the notification")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	b := NewBus()
	assert.NotPanics(t, func() { b.Publish(Refresh{}) })
	assert.Zero(t, b.Subscribers())
}

func TestBusCancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	cancel()
	assert.Zero(t, b.Subscribers())

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is harmless.
	assert.NotPanics(t, cancel)
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe()
	defer cancel()

	// Never read: the buffer fills, further publishes must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(Refresh{})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBusEverySubscriberSeesEveryNotification(t *testing.T) {
	b := NewBus()

	channels := make([]<-chan Refresh, 3)
	for i := range channels {
		ch, cancel := b.Subscribe()
		defer cancel()
		channels[i] = ch
	}

	const published = 5
	for i := 0; i < published; i++ {
		b.Publish(Refresh{})
	}

	for i, ch := range channels {
		assert.Len(t, ch, published, "subscriber %d", i)
	}
}
