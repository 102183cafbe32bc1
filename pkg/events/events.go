package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventLoadCompleted       EventType = "load.completed"
	EventCheckpointStarted   EventType = "checkpoint.started"
	EventCheckpointCompleted EventType = "checkpoint.completed"
	EventCheckpointFailed    EventType = "checkpoint.failed"
	EventPanicDump           EventType = "checkpoint.panic"
	EventExecStarted         EventType = "exec.started"
	EventExecCompleted       EventType = "exec.completed"
	EventExecKilled          EventType = "exec.killed"
	EventTaskResumed         EventType = "task.resumed"
)

// Event represents a server event
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// subscriberBuffer bounds how far a subscriber may fall behind before it
// starts losing events. The persistence core emits at most a handful of
// events per checkpoint cycle, so a short buffer is plenty.
const subscriberBuffer = 16

// Broker fans server events out to subscribers. Publishers are the
// checkpointer and the exec facility, some running on background
// goroutines; the typical subscriber is the server's single log tap.
// With so little traffic there is no dispatch goroutine: Publish stamps
// the event and delivers it to every subscriber in the caller's own
// goroutine, never blocking on any of them.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan *Event]struct{}
	closed bool
}

// NewBroker creates a broker ready for use; there is nothing to start.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan *Event]struct{})}
}

// Subscribe returns a buffered channel of events. The channel is closed
// by Unsubscribe or Close; subscribing to a closed broker yields an
// already-closed channel.
func (b *Broker) Subscribe() <-chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub <-chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		if ch == sub {
			delete(b.subs, ch)
			close(ch)
			return
		}
	}
}

// Publish stamps event with an id and timestamp if it has none and
// delivers it to every subscriber. Delivery is non-blocking: a
// subscriber that has fallen subscriberBuffer events behind loses this
// one rather than stalling a checkpoint or an exec completion.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscriber channel and turns further publishes into
// no-ops, so background checkpoint goroutines may safely outlive the
// broker during shutdown.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
