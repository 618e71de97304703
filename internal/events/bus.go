// Package events fans router outcomes and context transitions out to
// in-process subscribers and websocket clients.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/router"
)

// Type names an event payload.
type Type string

const (
	TypeOutcome    Type = "outcome"
	TypeTransition Type = "transition"
	TypePartial    Type = "partial"
	TypeState      Type = "state"
)

// Event is one bus message. Exactly one payload field is set per Type.
type Event struct {
	Type       Type                     `json:"type"`
	At         time.Time                `json:"at"`
	Outcome    *router.Outcome          `json:"outcome,omitempty"`
	Transition *contextstate.Transition `json:"transition,omitempty"`
	Partial    string                   `json:"partial,omitempty"`
	State      string                   `json:"state,omitempty"`
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Bus delivers events without blocking the publisher; a subscriber that
// falls behind loses events and the loss is counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	closed  bool
	dropped atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
			b.mu.Unlock()
		})
	}
}

// Publish stamps ev if needed and offers it to every subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports events lost to slow subscribers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Close ends every subscription. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// OutcomeSource is satisfied by *router.Router.
type OutcomeSource interface {
	Subscribe(func(router.Outcome)) func()
}

// TransitionSource is satisfied by *contextstate.Tracker.
type TransitionSource interface {
	Subscribe(func(contextstate.Transition)) func()
}

// Attach forwards outcomes and transitions onto the bus. The returned
// func detaches both.
func Attach(b *Bus, outcomes OutcomeSource, transitions TransitionSource) func() {
	var detach []func()
	if outcomes != nil {
		detach = append(detach, outcomes.Subscribe(func(o router.Outcome) {
			b.Publish(Event{Type: TypeOutcome, At: o.At, Outcome: &o})
		}))
	}
	if transitions != nil {
		detach = append(detach, transitions.Subscribe(func(tr contextstate.Transition) {
			b.Publish(Event{Type: TypeTransition, At: tr.At, Transition: &tr})
		}))
	}
	return func() {
		for _, fn := range detach {
			fn()
		}
	}
}
