package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	ev := New(ProposalRecorded)
	assert.Equal(t, ProposalRecorded, ev.Type)
	assert.NotEqual(t, "", ev.ID)
	assert.NotEqual(t, int64(0), ev.Timestamp)

	// every event should get a unique ID
	ev2 := New(ProposalRecorded)
	assert.NotEqual(t, ev.ID, ev2.ID)
}

func TestBus(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	sub := bus.Subscribe()

	ev := New(OwnerChanged)
	ev.Candidate = "candidate"
	bus.Emit(ev)

	select {
	case got := <-sub:
		assert.Equal(t, OwnerChanged, got.Type)
		assert.Equal(t, "candidate", got.Candidate)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusStopClosesSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Start()

	sub := bus.Subscribe()
	bus.Stop()

	// a range over the subscription must terminate after Stop
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub:
			if !ok {
				// subscribing after Stop yields a closed channel
				_, ok = <-bus.Subscribe()
				assert.False(t, ok)
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed after Stop")
		}
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	sub1 := bus.Subscribe()
	sub2 := bus.Subscribe()

	bus.Emit(New(GuardianAdded))

	for _, sub := range []<-chan *Event{sub1, sub2} {
		select {
		case got := <-sub:
			assert.Equal(t, GuardianAdded, got.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}
