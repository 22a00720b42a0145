package scale

import (
	"github.com/opentrickler/trickle2go/internal/units"
)

// StabilityWindow is a fixed-capacity ring of the most recent readings, used
// to infer stability for scale models that report none themselves. The ring
// holds at most its configured capacity; the oldest reading is evicted on
// overflow.
type StabilityWindow struct {
	readings []Reading
	start    int
	count    int
	unit     units.Unit
}

// NewStabilityWindow creates a window holding up to capacity readings.
func NewStabilityWindow(capacity int) *StabilityWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &StabilityWindow{
		readings: make([]Reading, capacity),
	}
}

// Push adds a reading to the window. A unit change invalidates all previous
// readings, since weights in different units are not comparable. A weight
// that deviates from the readings already in the window restarts the count
// from the deviating reading.
func (w *StabilityWindow) Push(reading Reading) {
	if w.count > 0 && reading.Unit != w.unit {
		w.Clear()
	}
	if w.count > 0 {
		anchor := w.at(0)
		if reading.Weight.Sub(anchor.Weight).Abs().GreaterThan(reading.Resolution) {
			w.Clear()
		}
	}
	w.unit = reading.Unit

	idx := (w.start + w.count) % len(w.readings)
	w.readings[idx] = reading
	if w.count < len(w.readings) {
		w.count++
	} else {
		w.start = (w.start + 1) % len(w.readings)
	}
}

// Clear empties the window.
func (w *StabilityWindow) Clear() {
	w.start = 0
	w.count = 0
}

// Len returns the number of readings currently held.
func (w *StabilityWindow) Len() int {
	return w.count
}

// Cap returns the configured window capacity.
func (w *StabilityWindow) Cap() int {
	return len(w.readings)
}

// Stable reports whether the window is full, which by construction means the
// last Cap() readings agreed within the unit resolution.
func (w *StabilityWindow) Stable() bool {
	return w.count == len(w.readings)
}

// at returns the i-th oldest reading in the window.
func (w *StabilityWindow) at(i int) Reading {
	return w.readings[(w.start+i)%len(w.readings)]
}

// Inferencer derives an effective stability flag for a scale reading. For
// models with a native stability flag the flag is passed through unchanged;
// for all others stability is inferred from the reading window.
type Inferencer struct {
	native bool
	window *StabilityWindow
}

// NewInferencer creates an Inferencer for the given model. windowSize is the
// number of consecutive matching readings required to declare stability when
// the model has no native flag.
func NewInferencer(model *Model, windowSize int) *Inferencer {
	return &Inferencer{
		native: model.HasStabilityFlag,
		window: NewStabilityWindow(windowSize),
	}
}

// Update feeds a reading into the inferencer and returns the effective
// stability for it.
func (i *Inferencer) Update(reading Reading) bool {
	if i.native {
		return reading.Stable
	}
	if !reading.HasWeight() {
		// status-only frames interrupt the run of comparable readings
		i.window.Clear()
		return false
	}

	i.window.Push(reading)
	return i.window.Stable()
}

// Reset clears any inferred history, e.g. after a fault or reconnect.
func (i *Inferencer) Reset() {
	i.window.Clear()
}
