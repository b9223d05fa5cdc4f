package param

import (
	"sync"

	"navpanel/internal/protocol"
)

// Kind tells which field of a Change carries the payload.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindCode:
		return "code"
	}
	return "unknown"
}

// Change is the notification a parameter emits after every confirmed mutation.
type Change struct {
	Kind   Kind
	Name   string // variable name, empty for commands
	Number float64
	Bool   bool
	Code   string // literal payload for commands
}

// Line renders the change as one wire line (without the trailing newline).
func (c Change) Line() string {
	switch c.Kind {
	case KindBool:
		return protocol.AssignBool(c.Name, c.Bool)
	case KindCode:
		return c.Code
	default:
		return protocol.Assign(c.Name, c.Number)
	}
}

// Observer receives parameter changes. Implementations must not call back into the
// parameter that notified them.
type Observer interface {
	Changed(Change)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) Changed(c Change) { f(c) }

// notifier is the subscription list shared by all parameter kinds.
type notifier struct {
	mu        sync.Mutex
	nextID    int
	observers map[int]Observer
	order     []int
}

// Subscribe registers o and returns a func that removes it again.
func (n *notifier) Subscribe(o Observer) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.observers == nil {
		n.observers = make(map[int]Observer)
	}
	id := n.nextID
	n.nextID++
	n.observers[id] = o
	n.order = append(n.order, id)

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.observers, id)
		for i, v := range n.order {
			if v == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
}

func (n *notifier) notify(c Change) {
	n.mu.Lock()
	targets := make([]Observer, 0, len(n.order))
	for _, id := range n.order {
		targets = append(targets, n.observers[id])
	}
	n.mu.Unlock()

	for _, o := range targets {
		o.Changed(c)
	}
}
