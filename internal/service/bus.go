package service

import (
	"sync"
	"sync/atomic"
)

// Resource is the part of a session an event is about.
type Resource string

const (
	ResourceStructure Resource = "structure" // groups added, removed or reordered
	ResourceLayer     Resource = "layer"     // visibility or opacity of one layer
	ResourceVisible   Resource = "visible"   // the list of visible layer names
	ResourceView      Resource = "view"
	ResourceSession   Resource = "session"
)

// Action is what happened to the resource.
type Action string

const (
	ActionCreated Action = "created"
	ActionChanged Action = "changed"
	ActionDeleted Action = "deleted"
)

// Event is a change in one viewer session.
type Event struct {
	Session  string
	Resource Resource
	Action   Action
	Name     string // layer name for layer events
}

// subscriptionBuffer is the number of events a subscriber may lag behind
// before further events are dropped for it.
const subscriptionBuffer = 16

// Subscription receives the events of one session, or of all sessions.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	session string
	dropped atomic.Int64
}

// Dropped returns how many events were skipped because C was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// EventBus fans session events out to subscribers. Publish never blocks.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[*Subscription]struct{})}
}

// Publish delivers e to every subscriber of its session.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.session != "" && sub.session != e.Session {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber for session. An empty session
// subscribes to every session.
func (b *EventBus) Subscribe(session string) *Subscription {
	ch := make(chan Event, subscriptionBuffer)
	sub := &Subscription{C: ch, ch: ch, session: session}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call twice.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Subscribers returns the number of registered subscriptions.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// DefaultBus is used by session services created without WithBus.
var DefaultBus = NewEventBus()
