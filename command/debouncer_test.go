package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestDebouncer(d time.Duration, dt DebounceType) (*Debouncer, *time.Time) {
	deb := NewDebouncer(d, dt)
	now := time.Unix(0, 0)
	deb.now = func() time.Time { return now }
	deb.timerStart = now
	return deb, &now
}

func TestDebouncerRisingRequiresStability(t *testing.T) {
	deb, now := newTestDebouncer(50*time.Millisecond, DebounceRising)

	assert.False(t, deb.Calculate(true))
	*now = now.Add(30 * time.Millisecond)
	assert.False(t, deb.Calculate(true))
	*now = now.Add(30 * time.Millisecond)
	assert.True(t, deb.Calculate(true))

	// Falling edges are not debounced in rising mode.
	assert.False(t, deb.Calculate(false))
}

func TestDebouncerRisingResetOnBounce(t *testing.T) {
	deb, now := newTestDebouncer(50*time.Millisecond, DebounceRising)

	assert.False(t, deb.Calculate(true))
	*now = now.Add(30 * time.Millisecond)
	// Bounce back to the baseline restarts the stability window.
	assert.False(t, deb.Calculate(false))
	*now = now.Add(30 * time.Millisecond)
	assert.False(t, deb.Calculate(true))
	*now = now.Add(30 * time.Millisecond)
	assert.True(t, deb.Calculate(true))
}

func TestDebouncerFallingStartsHigh(t *testing.T) {
	deb, now := newTestDebouncer(50*time.Millisecond, DebounceFalling)

	assert.True(t, deb.Calculate(true))
	assert.True(t, deb.Calculate(false))
	*now = now.Add(60 * time.Millisecond)
	assert.False(t, deb.Calculate(false))

	// Rising edges pass through immediately in falling mode.
	assert.True(t, deb.Calculate(true))
}

func TestDebouncerBothDirections(t *testing.T) {
	deb, now := newTestDebouncer(50*time.Millisecond, DebounceBoth)

	assert.False(t, deb.Calculate(true))
	*now = now.Add(60 * time.Millisecond)
	assert.True(t, deb.Calculate(true))

	assert.True(t, deb.Calculate(false))
	*now = now.Add(60 * time.Millisecond)
	assert.False(t, deb.Calculate(false))
}

func TestTriggerDebounceFiltersGlitches(t *testing.T) {
	s := newTestScheduler()
	raw := false
	k := newMockCommand("k")

	trig := NewTriggerForScheduler(s, func() bool { return raw }).
		Debounce(time.Hour, DebounceRising)
	trig.OnTrue(k)

	// A glitch far shorter than the debounce window never schedules.
	raw = true
	s.Run()
	raw = false
	s.Run()

	assert.Equal(t, 0, k.initCount)
}
