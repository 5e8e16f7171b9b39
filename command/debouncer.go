package command

import "time"

// DebounceType selects which edges a Debouncer filters.
type DebounceType int

const (
	// DebounceRising requires stability before reporting a false→true flip;
	// true→false flips pass through immediately.
	DebounceRising DebounceType = iota

	// DebounceFalling requires stability before reporting a true→false
	// flip; false→true flips pass through immediately.
	DebounceFalling

	// DebounceBoth requires stability in both directions.
	DebounceBoth
)

// Debouncer filters a boolean stream: the output only flips in a debounced
// direction after the input has held the new value for the debounce time.
type Debouncer struct {
	debounceTime time.Duration
	debounceType DebounceType
	baseline     bool
	timerStart   time.Time

	// now is the time source; tests stub it.
	now func() time.Time
}

// NewDebouncer creates a debouncer requiring the given duration of
// stability. The initial output is false for rising/both, true for falling.
func NewDebouncer(debounceTime time.Duration, debounceType DebounceType) *Debouncer {
	d := &Debouncer{
		debounceTime: debounceTime,
		debounceType: debounceType,
		now:          time.Now,
	}
	if debounceType == DebounceFalling {
		d.baseline = true
	}
	d.timerStart = d.now()
	return d
}

// Calculate feeds one sample and returns the debounced output.
func (d *Debouncer) Calculate(input bool) bool {
	if input == d.baseline {
		d.timerStart = d.now()
		return d.baseline
	}

	debounced := d.debounceType == DebounceBoth ||
		(d.debounceType == DebounceRising && input) ||
		(d.debounceType == DebounceFalling && !input)
	if !debounced {
		// Edges in the un-debounced direction flip immediately.
		d.baseline = input
		d.timerStart = d.now()
		return d.baseline
	}

	if d.now().Sub(d.timerStart) >= d.debounceTime {
		d.baseline = input
		d.timerStart = d.now()
	}
	return d.baseline
}
