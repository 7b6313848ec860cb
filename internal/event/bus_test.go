package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	t.Cleanup(unsubscribeSecond)

	bus.Publish(Event{ID: "1", Type: TypeClockedIn, ManagerID: 3})

	require.Equal(t, TypeClockedIn, (<-first).Type)
	require.Equal(t, int64(3), (<-second).ManagerID)

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	require.False(t, open)

	bus.Publish(Event{ID: "2", Type: TypeClockedOut})
	require.Equal(t, "2", (<-second).ID)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: TypeRecordApproved})
	}
	require.Len(t, ch, subscriberBuffer)
}
