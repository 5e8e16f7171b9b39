package command

import "time"

// InitialState configures the "previous" value a trigger binding starts
// from, which decides whether a condition that is already true when the
// binding is installed counts as an edge on the first poll.
type InitialState int

const (
	// InitialStateCondition samples the condition at binding time, so a
	// binding installed while the condition is already true does not fire an
	// immediate rising edge. This is the default.
	InitialStateCondition InitialState = iota

	// InitialStateFalse starts from false, so a condition that is already
	// true fires a rising edge on the first poll.
	InitialStateFalse
)

// Trigger is an edge-detecting boolean sampler bound to scheduling side
// effects. Binding combinators install a polled closure on an event loop;
// the scheduler polls the loop each tick and the closure compares the
// condition's current value to its previous one.
//
// Triggers compose by boolean algebra (And, Or, Negate) and can be
// debounced.
type Trigger struct {
	scheduler *Scheduler
	loop      *EventLoop
	condition func() bool
}

// NewTrigger creates a trigger on the singleton scheduler's default button
// loop.
func NewTrigger(condition func() bool) *Trigger {
	s := GetInstance()
	return &Trigger{
		scheduler: s,
		loop:      s.GetDefaultButtonLoop(),
		condition: condition,
	}
}

// NewTriggerOnLoop creates a trigger polled by the given event loop. The
// loop must be polled for bindings to fire; pass it to
// Scheduler.SetActiveButtonLoop or poll it yourself.
func NewTriggerOnLoop(loop *EventLoop, condition func() bool) *Trigger {
	return &Trigger{
		scheduler: GetInstance(),
		loop:      loop,
		condition: condition,
	}
}

// NewTriggerForScheduler creates a trigger bound to an isolated scheduler's
// default button loop. Bindings schedule and cancel on that scheduler.
func NewTriggerForScheduler(scheduler *Scheduler, condition func() bool) *Trigger {
	return &Trigger{
		scheduler: scheduler,
		loop:      scheduler.GetDefaultButtonLoop(),
		condition: condition,
	}
}

// Get samples the trigger's condition.
func (t *Trigger) Get() bool {
	return t.condition()
}

func initialStateOf(initial []InitialState) InitialState {
	if len(initial) > 0 {
		return initial[0]
	}
	return InitialStateCondition
}

func (t *Trigger) initialPrevious(initial []InitialState) bool {
	if initialStateOf(initial) == InitialStateCondition {
		return t.condition()
	}
	return false
}

// addBinding installs a polled closure carrying the previous sample.
func (t *Trigger) addBinding(body func(previous, current bool), initial []InitialState) {
	previous := t.initialPrevious(initial)
	condition := t.condition
	t.loop.Bind(func() {
		current := condition()
		body(previous, current)
		previous = current
	})
}

// OnTrue schedules the command on each rising edge.
func (t *Trigger) OnTrue(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if !previous && current {
			_ = t.scheduler.Schedule(c)
		}
	}, initial)
	return t
}

// OnFalse schedules the command on each falling edge.
func (t *Trigger) OnFalse(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if previous && !current {
			_ = t.scheduler.Schedule(c)
		}
	}, initial)
	return t
}

// OnChange schedules the command on every edge, rising or falling.
func (t *Trigger) OnChange(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if previous != current {
			_ = t.scheduler.Schedule(c)
		}
	}, initial)
	return t
}

// WhileTrue schedules the command on the rising edge and cancels it on the
// falling edge.
func (t *Trigger) WhileTrue(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if !previous && current {
			_ = t.scheduler.Schedule(c)
		} else if previous && !current {
			t.scheduler.Cancel(c)
		}
	}, initial)
	return t
}

// WhileFalse schedules the command on the falling edge and cancels it on
// the rising edge.
func (t *Trigger) WhileFalse(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if previous && !current {
			_ = t.scheduler.Schedule(c)
		} else if !previous && current {
			t.scheduler.Cancel(c)
		}
	}, initial)
	return t
}

// ToggleOnTrue toggles the command on each rising edge: canceled if
// scheduled, scheduled otherwise.
func (t *Trigger) ToggleOnTrue(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if !previous && current {
			if t.scheduler.IsScheduled(c) {
				t.scheduler.Cancel(c)
			} else {
				_ = t.scheduler.Schedule(c)
			}
		}
	}, initial)
	return t
}

// ToggleOnFalse toggles the command on each falling edge.
func (t *Trigger) ToggleOnFalse(c Command, initial ...InitialState) *Trigger {
	t.addBinding(func(previous, current bool) {
		if previous && !current {
			if t.scheduler.IsScheduled(c) {
				t.scheduler.Cancel(c)
			} else {
				_ = t.scheduler.Schedule(c)
			}
		}
	}, initial)
	return t
}

// And returns a trigger that is true when both triggers are.
func (t *Trigger) And(other *Trigger) *Trigger {
	return &Trigger{
		scheduler: t.scheduler,
		loop:      t.loop,
		condition: func() bool { return t.condition() && other.condition() },
	}
}

// Or returns a trigger that is true when either trigger is.
func (t *Trigger) Or(other *Trigger) *Trigger {
	return &Trigger{
		scheduler: t.scheduler,
		loop:      t.loop,
		condition: func() bool { return t.condition() || other.condition() },
	}
}

// Negate returns a trigger with the opposite value.
func (t *Trigger) Negate() *Trigger {
	return &Trigger{
		scheduler: t.scheduler,
		loop:      t.loop,
		condition: func() bool { return !t.condition() },
	}
}

// Debounce returns a trigger whose condition must hold the new value for
// the given duration before the trigger's output flips. The default type
// debounces rising edges only.
func (t *Trigger) Debounce(duration time.Duration, debounceType ...DebounceType) *Trigger {
	dt := DebounceRising
	if len(debounceType) > 0 {
		dt = debounceType[0]
	}
	debouncer := NewDebouncer(duration, dt)
	condition := t.condition
	return &Trigger{
		scheduler: t.scheduler,
		loop:      t.loop,
		condition: func() bool { return debouncer.Calculate(condition()) },
	}
}
