package param

import (
	"math"
	"sync"
)

// Resolution is the number of discrete steps between a range's min and max.
const Resolution = 32000

// Ranged is a named numeric parameter with a live [min, max] range and a normalized
// position in [0, Resolution] that tracks the value proportionally.
type Ranged struct {
	notifier

	name string

	mu       sync.Mutex
	min      float64
	max      float64
	value    float64
	position int
}

// NewRanged creates a ranged parameter and syncs its position from value. It does not
// notify; the panel announces initial values once observers are attached.
func NewRanged(name string, min, max, value float64) *Ranged {
	r := &Ranged{name: name, min: min, max: max, value: value}
	r.syncFromValue()
	return r
}

func (r *Ranged) Name() string { return r.name }

func (r *Ranged) Min() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.min
}

func (r *Ranged) Max() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max
}

func (r *Ranged) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Ranged) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// SetPosition moves the normalized position and derives the value from it.
// Positions outside [0, Resolution] are clamped.
func (r *Ranged) SetPosition(p int) {
	r.mu.Lock()
	r.position = clampInt(p, 0, Resolution)
	r.value = valueAt(r.position, r.min, r.max)
	c := r.change()
	r.mu.Unlock()

	r.notify(c)
}

// Step moves the position by delta steps.
func (r *Ranged) Step(delta int) {
	r.SetPosition(r.Position() + delta)
}

// SetValue edits the real value directly; the position follows.
func (r *Ranged) SetValue(v float64) {
	r.mu.Lock()
	r.value = v
	r.syncFromValue()
	c := r.change()
	r.mu.Unlock()

	r.notify(c)
}

func (r *Ranged) SetMin(min float64) {
	r.mu.Lock()
	r.min = min
	r.syncFromValue()
	c := r.change()
	r.mu.Unlock()

	r.notify(c)
}

func (r *Ranged) SetMax(max float64) {
	r.mu.Lock()
	r.max = max
	r.syncFromValue()
	c := r.change()
	r.mu.Unlock()

	r.notify(c)
}

// SetRange replaces both bounds in one mutation.
func (r *Ranged) SetRange(min, max float64) {
	r.mu.Lock()
	r.min, r.max = min, max
	r.syncFromValue()
	c := r.change()
	r.mu.Unlock()

	r.notify(c)
}

// Announce re-sends the current value without changing anything.
func (r *Ranged) Announce() {
	r.mu.Lock()
	c := r.change()
	r.mu.Unlock()
	r.notify(c)
}

// syncFromValue clamps value into the range and recomputes the position.
// A degenerate range (max <= min) pins the position to 0 and the value to min.
// Caller holds r.mu.
func (r *Ranged) syncFromValue() {
	if !(r.max > r.min) {
		r.position = 0
		r.value = r.min
		return
	}
	r.value = math.Min(math.Max(r.value, r.min), r.max)
	r.position = positionOf(r.value, r.min, r.max)
}

func (r *Ranged) change() Change {
	return Change{Kind: KindNumber, Name: r.name, Number: r.value}
}

// positionOf maps a value onto [0, Resolution]. Requires max > min.
func positionOf(v, min, max float64) int {
	p := math.Round(Resolution * (v - min) / (max - min))
	if math.IsNaN(p) {
		return 0
	}
	return clampInt(int(p), 0, Resolution)
}

// valueAt maps a position back onto [min, max]; the end points are exact.
func valueAt(p int, min, max float64) float64 {
	switch {
	case p <= 0:
		return min
	case p >= Resolution:
		if max < min {
			return min
		}
		return max
	}
	if !(max > min) {
		return min
	}
	return min + float64(p)/Resolution*(max-min)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
