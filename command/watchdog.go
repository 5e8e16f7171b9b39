package command

import (
	"time"

	"github.com/itsneelabh/rovermind/core"
)

// epoch records the cumulative elapsed time at which a named step of the
// tick completed.
type epoch struct {
	name    string
	elapsed time.Duration
}

// Watchdog measures each scheduler tick against the nominal period and
// records per-step epochs so overruns can be attributed to the command or
// subsystem that ate the budget.
//
// The epoch table of an overrun tick is emitted through the logger. When a
// metrics registry is installed, each tick's duration is also recorded as a
// histogram and overruns are counted; the epochs themselves are not.
type Watchdog struct {
	timeout time.Duration
	start   time.Time
	epochs  []epoch
	enabled bool
	running bool
	logger  core.Logger

	// now is the time source; tests stub it.
	now func() time.Time
}

// NewWatchdog creates a watchdog with the given tick budget.
func NewWatchdog(timeout time.Duration, logger core.Logger) *Watchdog {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Watchdog{
		timeout: timeout,
		enabled: true,
		logger:  logger,
		now:     time.Now,
	}
}

// SetTimeout updates the tick budget.
func (w *Watchdog) SetTimeout(timeout time.Duration) {
	w.timeout = timeout
}

// Timeout returns the tick budget.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// SetEnabled turns epoch recording and overrun reporting on or off.
func (w *Watchdog) SetEnabled(enabled bool) {
	w.enabled = enabled
}

// Reset starts timing a new tick, discarding any previous epochs.
func (w *Watchdog) Reset() {
	if !w.enabled {
		return
	}
	w.start = w.now()
	w.epochs = w.epochs[:0]
	w.running = true
}

// AddEpoch records the completion of a named step at the current elapsed
// time.
func (w *Watchdog) AddEpoch(name string) {
	if !w.enabled || !w.running {
		return
	}
	w.epochs = append(w.epochs, epoch{name: name, elapsed: w.now().Sub(w.start)})
}

// IsExpired reports whether the tick exceeded its budget.
func (w *Watchdog) IsExpired() bool {
	if !w.enabled || w.start.IsZero() {
		return false
	}
	return w.now().Sub(w.start) > w.timeout
}

// Finish stops timing the current tick and, when the budget was exceeded,
// emits the epoch table. Overruns never halt scheduling.
func (w *Watchdog) Finish() {
	if !w.enabled || !w.running {
		return
	}
	w.running = false
	elapsed := w.now().Sub(w.start)

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Histogram("scheduler.tick.duration_ms", float64(elapsed)/float64(time.Millisecond))
	}

	if elapsed <= w.timeout {
		return
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("scheduler.tick.overruns")
	}
	w.PrintEpochs()
}

// PrintEpochs logs the recorded epoch table for the current tick.
func (w *Watchdog) PrintEpochs() {
	if !w.enabled {
		return
	}
	elapsed := w.now().Sub(w.start)
	fields := map[string]interface{}{
		"operation":  "watchdog",
		"elapsed_ms": float64(elapsed) / float64(time.Millisecond),
		"timeout_ms": float64(w.timeout) / float64(time.Millisecond),
	}
	previous := time.Duration(0)
	for _, e := range w.epochs {
		fields[e.name] = (e.elapsed - previous).String()
		previous = e.elapsed
	}
	w.logger.Warn("Scheduler loop time overrun", fields)
}
