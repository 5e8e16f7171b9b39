package command

import "time"

// Factory functions for building command pipelines without naming the
// concrete command types. Each returns an owning CommandPtr ready for
// decorator chaining.

// None returns a command that does nothing and finishes immediately.
func None() *CommandPtr {
	return NewCommandPtr(NewInstantCommand(nil))
}

// Idle returns a command that does nothing until interrupted, holding the
// given requirements.
func Idle(requirements ...Subsystem) *CommandPtr {
	return Run(func() {}, requirements...)
}

// RunOnce returns a command that calls the function once and finishes.
func RunOnce(action func(), requirements ...Subsystem) *CommandPtr {
	return NewCommandPtr(NewInstantCommand(action, requirements...))
}

// Run returns a command that calls the function every tick until
// interrupted.
func Run(action func(), requirements ...Subsystem) *CommandPtr {
	return NewCommandPtr(NewRunCommand(action, requirements...))
}

// StartEnd returns a command that calls start when scheduled and end when
// interrupted.
func StartEnd(start, end func(), requirements ...Subsystem) *CommandPtr {
	return NewCommandPtr(NewStartEndCommand(start, end, requirements...))
}

// RunEnd returns a command that calls run every tick and end when
// interrupted.
func RunEnd(run, end func(), requirements ...Subsystem) *CommandPtr {
	var onEnd func(bool)
	if end != nil {
		onEnd = func(bool) { end() }
	}
	return NewCommandPtr(NewFunctionalCommand(nil, run, onEnd, nil, requirements...))
}

// Print returns a command that prints the message and finishes.
func Print(message string) *CommandPtr {
	return NewCommandPtr(NewPrintCommand(message))
}

// Wait returns a command that finishes after the duration elapses.
func Wait(duration time.Duration) *CommandPtr {
	return NewCommandPtr(NewWaitCommand(duration))
}

// WaitUntil returns a command that finishes when the condition becomes
// true.
func WaitUntil(condition func() bool) *CommandPtr {
	return NewCommandPtr(NewWaitUntilCommand(condition))
}

// Either runs onTrue or onFalse depending on the condition sampled at
// schedule time.
func Either(onTrue, onFalse *CommandPtr, condition func() bool) *CommandPtr {
	t := onTrue.take("Either")
	f := onFalse.take("Either")
	if t == nil {
		t = NewInstantCommand(nil)
	}
	if f == nil {
		f = NewInstantCommand(nil)
	}
	c, err := newConditionalCommand(callerSite(), t, f, condition)
	if err != nil {
		return failedFactory("Either", err)
	}
	return NewCommandPtr(c)
}

// Select runs the command keyed by the selector's value at schedule time.
func Select(selector func() any, commands map[any]*CommandPtr) *CommandPtr {
	unwrapped := make(map[any]Command, len(commands))
	for key, ptr := range commands {
		if c := ptr.take("Select"); c != nil {
			unwrapped[key] = c
		}
	}
	c, err := NewSelectCommand(selector, unwrapped)
	if err != nil {
		return failedFactory("Select", err)
	}
	return NewCommandPtr(c)
}

// Defer returns a command whose real command is produced by the supplier at
// each scheduling.
func Defer(supplier func() Command, requirements ...Subsystem) *CommandPtr {
	return NewCommandPtr(NewDeferredCommand(supplier, requirements...))
}

// DeferredProxy returns a proxy whose target is produced by the supplier at
// each scheduling.
func DeferredProxy(supplier func() Command) *CommandPtr {
	return NewCommandPtr(NewProxyCommandFromSupplier(supplier))
}

// Sequence runs the commands one after another.
func Sequence(commands ...*CommandPtr) *CommandPtr {
	g, err := newSequentialGroup(callerSite(), takeAll("Sequence", commands))
	if err != nil {
		return failedFactory("Sequence", err)
	}
	return NewCommandPtr(g)
}

// RepeatingSequence runs the commands one after another, restarting the
// sequence each time it completes.
func RepeatingSequence(commands ...*CommandPtr) *CommandPtr {
	return Sequence(commands...).Repeatedly()
}

// Parallel runs the commands concurrently, finishing when all have
// finished.
func Parallel(commands ...*CommandPtr) *CommandPtr {
	g, err := newParallelGroup(callerSite(), takeAll("Parallel", commands))
	if err != nil {
		return failedFactory("Parallel", err)
	}
	return NewCommandPtr(g)
}

// Race runs the commands concurrently, finishing as soon as any finishes
// and interrupting the rest.
func Race(commands ...*CommandPtr) *CommandPtr {
	g, err := newRaceGroup(callerSite(), takeAll("Race", commands))
	if err != nil {
		return failedFactory("Race", err)
	}
	return NewCommandPtr(g)
}

// Deadline runs the commands concurrently until the deadline finishes,
// interrupting any still running.
func Deadline(deadline *CommandPtr, commands ...*CommandPtr) *CommandPtr {
	d := deadline.take("Deadline")
	if d == nil {
		d = NewInstantCommand(nil)
	}
	g, err := newDeadlineGroup(callerSite(), d, takeAll("Deadline", commands))
	if err != nil {
		return failedFactory("Deadline", err)
	}
	return NewCommandPtr(g)
}

func takeAll(op string, ptrs []*CommandPtr) []Command {
	out := make([]Command, 0, len(ptrs))
	for _, ptr := range ptrs {
		if c := ptr.take(op); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// failedFactory logs the construction error and substitutes a no-op command
// so the caller's pipeline stays usable.
func failedFactory(op string, err error) *CommandPtr {
	GetInstance().logger.Error("Command factory failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return None()
}
