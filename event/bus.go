package event

import (
	"sync"

	"github.com/ChainTrek/smart-wallet-contract/log"
)

// Bus fans emitted events out to every subscriber. Subscribers
// with full channels are skipped rather than blocking the
// internal event loop.
type Bus struct {
	sync.Mutex

	// channel for receiving emitted events
	eventChan chan *Event
	// channel for stopping goroutines
	stopChan chan struct{}

	stopped     bool
	subscribers []chan *Event
}

// NewBus creates a Bus which should be started before use.
func NewBus() *Bus {
	return &Bus{
		eventChan: make(chan *Event, 64),
		stopChan:  make(chan struct{}),
	}
}

// Start the internal event loop of the bus.
func (b *Bus) Start() {
	go func() {
		for {
			select {
			case ev := <-b.eventChan:
				b.dispatch(ev)
			case <-b.stopChan:
				b.closeSubscribers()
				return
			}
		}
	}()
}

// Stop the bus by closing stopChan to notify goroutines to stop.
// The event loop closes every subscriber channel on its way out so
// that consumers ranging over a subscription terminate.
func (b *Bus) Stop() {
	close(b.stopChan)
}

// closeSubscribers runs in the event loop goroutine, which is the
// only sender on subscriber channels, so closing here cannot race
// with a dispatch.
func (b *Bus) closeSubscribers() {
	b.Lock()
	defer b.Unlock()

	b.stopped = true
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
}

// Subscribe returns a channel which receives every event emitted
// after the subscription. The channel is closed when the bus stops,
// subscribing to a stopped bus returns a closed channel.
func (b *Bus) Subscribe() <-chan *Event {
	b.Lock()
	defer b.Unlock()

	ch := make(chan *Event, 64)
	if b.stopped {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Emit queues the event for dispatching.
func (b *Bus) Emit(ev *Event) {
	if ev == nil {
		return
	}
	select {
	case b.eventChan <- ev:
	case <-b.stopChan:
	}
}

func (b *Bus) dispatch(ev *Event) {
	b.Lock()
	defer b.Unlock()

	for _, sub := range b.subscribers {
		select {
		case sub <- ev:
		default:
			log.Warnw("event subscriber is lagging, event dropped", "type", ev.Type, "id", ev.ID)
		}
	}
}
