package core

// Accumulator maintains the in-progress candidate password under the
// gesture event stream. It never fails: events that carry no symbol, or
// appends that would exceed the configured maximum length, are ignored.
type Accumulator struct {
	symbols []byte
	max     int
}

// NewAccumulator creates an empty accumulator capped at maxLength symbols.
func NewAccumulator(maxLength int) *Accumulator {
	return &Accumulator{
		symbols: make([]byte, 0, maxLength),
		max:     maxLength,
	}
}

// Apply folds one gesture event into the candidate. Events are applied in
// strict arrival order; a reset gesture empties the candidate with no
// recovery.
func (a *Accumulator) Apply(ev GestureEvent) {
	if ev.Gesture == GestureReset {
		a.symbols = a.symbols[:0]
		return
	}

	symbol, ok := ev.Gesture.Symbol()
	if !ok {
		return
	}

	// Bounds the attempt: a stuck or noisy classifier cannot grow the
	// candidate past the configured maximum.
	if len(a.symbols) >= a.max {
		return
	}

	a.symbols = append(a.symbols, symbol)
}

// Current returns the candidate's canonical string form: the accumulated
// symbols concatenated in arrival order, no separators. Side-effect free.
func (a *Accumulator) Current() string {
	return string(a.symbols)
}

// Len returns the number of accumulated symbols.
func (a *Accumulator) Len() int {
	return len(a.symbols)
}

// Full reports whether the candidate has reached the configured maximum.
func (a *Accumulator) Full() bool {
	return len(a.symbols) >= a.max
}
