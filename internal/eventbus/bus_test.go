package eventbus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/examcore/internal/eventbus"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := eventbus.New()
	ch, unsubscribe := bus.Subscribe("tok-1")
	defer unsubscribe()

	bus.Publish("tok-1", "session_expired", map[string]string{"reason": "timeout"})

	select {
	case evt := <-ch:
		assert.Equal(t, "tok-1", evt.Topic)
		assert.Equal(t, "session_expired", evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("event not delivered within timeout")
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	bus := eventbus.New()
	ch, unsubscribe := bus.Subscribe("tok-1")
	defer unsubscribe()

	bus.Publish("tok-2", "session_expired", nil)

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event delivered: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishWithNoSubscriberIsNoop(t *testing.T) {
	bus := eventbus.New()
	require.NotPanics(t, func() {
		bus.Publish("unheard", "session_completed", nil)
	})
}

func TestUnsubscribeClosesChannelAndDropsCount(t *testing.T) {
	bus := eventbus.New()
	ch, unsubscribe := bus.Subscribe("tok-1")
	require.Equal(t, 1, bus.SubscriberCount("tok-1"))

	unsubscribe()
	require.Equal(t, 0, bus.SubscriberCount("tok-1"))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestPublishNeverBlocksOnFullSubscriberBuffer(t *testing.T) {
	bus := eventbus.New()
	_, unsubscribe := bus.Subscribe("tok-1")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish("tok-1", "pong", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}

func TestMultipleSubscribersEachReceive(t *testing.T) {
	bus := eventbus.New()
	ch1, unsub1 := bus.Subscribe("tok-1")
	defer unsub1()
	ch2, unsub2 := bus.Subscribe("tok-1")
	defer unsub2()

	bus.Publish("tok-1", "connected", nil)

	for _, ch := range []<-chan eventbus.Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("a subscriber did not receive the broadcast event")
		}
	}
}
