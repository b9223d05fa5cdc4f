package param

import "sync"

// Toggle is a named boolean parameter.
type Toggle struct {
	notifier

	label string
	name  string

	mu    sync.Mutex
	value bool
}

func NewToggle(label, name string, value bool) *Toggle {
	return &Toggle{label: label, name: name, value: value}
}

func (t *Toggle) Label() string { return t.label }
func (t *Toggle) Name() string  { return t.name }

func (t *Toggle) Value() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Set stores b and notifies, even when b equals the current value.
func (t *Toggle) Set(b bool) {
	t.mu.Lock()
	t.value = b
	t.mu.Unlock()
	t.notify(Change{Kind: KindBool, Name: t.name, Bool: b})
}

// Flip inverts the value and notifies once.
func (t *Toggle) Flip() {
	t.mu.Lock()
	t.value = !t.value
	b := t.value
	t.mu.Unlock()
	t.notify(Change{Kind: KindBool, Name: t.name, Bool: b})
}

func (t *Toggle) Announce() {
	t.notify(Change{Kind: KindBool, Name: t.name, Bool: t.Value()})
}

// Command is a stateless control that sends a fixed literal payload.
type Command struct {
	notifier

	label   string
	payload string
}

func NewCommand(label, payload string) *Command {
	return &Command{label: label, payload: payload}
}

func (c *Command) Label() string   { return c.label }
func (c *Command) Payload() string { return c.payload }

// Fire notifies observers with the literal payload.
func (c *Command) Fire() {
	c.notify(Change{Kind: KindCode, Code: c.payload})
}
