// Package notify fans active-variant changes out to observers.
//
// The clip engine accepts a single change callback. A Notifier plugs into
// that callback and delivers each change synchronously to any number of
// subscribers, in the order they subscribed.
package notify

import (
	"sync"

	"github.com/dshills/bandswap/internal/core"
)

// Change is one active-variant update.
type Change struct {
	// Seq increases by one for every change delivered by a notifier.
	Seq uint64

	// Active is the new active list, the default variant first when present.
	Active []core.ActiveVariant

	// Previous is the list delivered before this one.
	Previous []core.ActiveVariant
}

// Progress returns the progress of the named variant, or 0 if inactive.
func (c Change) Progress(name string) float64 {
	for _, a := range c.Active {
		if a.Name == name {
			return a.Progress
		}
	}
	return 0
}

// Observer is called for each change.
type Observer func(change Change)

// Subscription represents an active observer.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	id       uint64
	observer Observer
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	subscribers []subscriber

	nextID uint64
	seq    uint64
	last   []core.ActiveVariant
	closed bool
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers = append(n.subscribers, subscriber{id: id, observer: observer})
	return &Subscription{id: id, notifier: n}
}

// Notify records a new active list and delivers it on the calling
// goroutine. Its signature matches the clip engine's change callback.
func (n *Notifier) Notify(active []core.ActiveVariant) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.seq++
	change := Change{
		Seq:      n.seq,
		Active:   core.CloneActive(active),
		Previous: n.last,
	}
	n.last = change.Active
	observers := make([]Observer, len(n.subscribers))
	for i, s := range n.subscribers {
		observers[i] = s.observer
	}
	n.mu.Unlock()

	// Observers run outside the lock so they may subscribe or unsubscribe.
	for _, obs := range observers {
		obs(change)
	}
}

// Close stops delivery. Safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subscribers {
		if s.id == id {
			n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
			return
		}
	}
}
