package panel

// panel.go = headless control factory: turns a schema into live parameters wired to
// observers, independent of how they are drawn.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"navpanel/internal/param"
	"navpanel/internal/schema"
)

var ErrUnknownVariable = errors.New("unknown variable")

// Control is one built entry. Exactly one of Ranged, Toggle or Command is set.
type Control struct {
	Kind    schema.EntryKind
	Ranged  *param.Ranged
	Toggle  *param.Toggle
	Command *param.Command
}

// Label is the text shown next to the control.
func (c Control) Label() string {
	switch c.Kind {
	case schema.EntrySlider:
		return c.Ranged.Name()
	case schema.EntryCheckbox:
		return c.Toggle.Label()
	default:
		return c.Command.Label()
	}
}

type subscribable interface {
	Subscribe(o param.Observer) (unsubscribe func())
}

// Panel owns the parameters built from one schema.
type Panel struct {
	controls []Control
	sliders  map[string]*param.Ranged
	toggles  map[string]*param.Toggle
	unsubs   []func()
}

// Build creates one parameter per schema entry, subscribes observers to each of them
// and announces initial values: toggles first, then sliders. A nil or empty schema
// builds an empty panel that sends nothing.
func Build(s *schema.Schema, observers ...param.Observer) *Panel {
	p := &Panel{
		sliders: make(map[string]*param.Ranged),
		toggles: make(map[string]*param.Toggle),
	}

	var toggles []*param.Toggle
	var sliders []*param.Ranged

	for _, e := range s.Entries() {
		c := Control{Kind: e.Kind}
		var target subscribable

		switch e.Kind {
		case schema.EntryButton:
			c.Command = param.NewCommand(e.Button.Label, e.Button.Code)
			target = c.Command
		case schema.EntryCheckbox:
			c.Toggle = param.NewToggle(e.Checkbox.Label, e.Checkbox.Variable, e.Checkbox.DefaultValue)
			p.toggles[c.Toggle.Name()] = c.Toggle
			toggles = append(toggles, c.Toggle)
			target = c.Toggle
		case schema.EntrySlider:
			sl := e.Slider
			c.Ranged = param.NewRanged(sl.Variable, sl.DefaultMin, sl.DefaultMax, sl.DefaultValue)
			p.sliders[c.Ranged.Name()] = c.Ranged
			sliders = append(sliders, c.Ranged)
			target = c.Ranged
		}

		for _, o := range observers {
			p.unsubs = append(p.unsubs, target.Subscribe(o))
		}
		p.controls = append(p.controls, c)
	}

	for _, t := range toggles {
		t.Announce()
	}
	for _, r := range sliders {
		r.Announce()
	}
	return p
}

// Controls returns the controls in construction order.
func (p *Panel) Controls() []Control {
	return p.controls
}

func (p *Panel) Len() int { return len(p.controls) }

// Slider looks up a ranged parameter by variable name.
func (p *Panel) Slider(name string) (*param.Ranged, bool) {
	r, ok := p.sliders[name]
	return r, ok
}

// Toggle looks up a boolean parameter by variable name.
func (p *Panel) Toggle(name string) (*param.Toggle, bool) {
	t, ok := p.toggles[name]
	return t, ok
}

// Command looks up a command by its label.
func (p *Panel) Command(label string) (*param.Command, bool) {
	for _, c := range p.controls {
		if c.Kind == schema.EntryButton && c.Command.Label() == label {
			return c.Command, true
		}
	}
	return nil, false
}

// Assign sets a known variable from its textual literal: sliders take a number,
// toggles take true or false. The change reaches observers like any UI edit.
func (p *Panel) Assign(name, literal string) error {
	literal = strings.TrimSpace(literal)

	if r, ok := p.sliders[name]; ok {
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fmt.Errorf("%s expects a number: %w", name, err)
		}
		r.SetValue(v)
		return nil
	}
	if t, ok := p.toggles[name]; ok {
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", name, err)
		}
		t.Set(b)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
}

// Close detaches every observer. Parameters stay readable but no longer send.
func (p *Panel) Close() {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
}
