package command

import (
	"fmt"
	"runtime"
	"time"

	"github.com/itsneelabh/rovermind/core"
)

// CommandPtr is the owning handle over a command. Builder methods consume
// the handle's command, wrap it in the corresponding composition, and return
// the handle pointing at the result, so decorators chain naturally:
//
//	cmd := command.Run(drive.Forward, drive).
//	    WithTimeout(3 * time.Second).
//	    AndThen(command.RunOnce(drive.Stop, drive))
//
// Handles whose command has been moved out (absorbed into another handle's
// composition, or transferred to the scheduler) are "moved-from"; using one
// is warned and the operation becomes a no-op.
type CommandPtr struct {
	command Command
	movedAt string
}

// NewCommandPtr wraps a command in an owning handle.
func NewCommandPtr(c Command) *CommandPtr {
	return &CommandPtr{command: c}
}

// callerSite names the source location two frames up, recording where a
// handle was consumed.
func callerSite() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// valid reports whether the handle still owns a command, warning on
// moved-from use.
func (p *CommandPtr) valid(op string) bool {
	if p == nil || p.command == nil {
		site := "unknown"
		if p != nil && p.movedAt != "" {
			site = p.movedAt
		}
		GetInstance().logger.Warn("Moved-from command handle used", map[string]interface{}{
			"operation": op,
			"moved_at":  site,
		})
		return false
	}
	return true
}

// take consumes the handle's command, marking the handle moved-from.
// Returns nil if the handle was already moved.
func (p *CommandPtr) take(op string) Command {
	if !p.valid(op) {
		return nil
	}
	c := p.command
	p.command = nil
	p.movedAt = callerSite()
	return c
}

// fail logs a decorator failure; the handle is left unchanged.
func (p *CommandPtr) fail(op string, err error) *CommandPtr {
	GetInstance().logger.Error("Command decorator failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return p
}

// Command returns the underlying command without consuming the handle, or
// nil for a moved-from handle.
func (p *CommandPtr) Command() Command {
	if !p.valid("Command") {
		return nil
	}
	return p.command
}

// Unwrap consumes the handle and returns the underlying command.
func (p *CommandPtr) Unwrap() Command {
	return p.take("Unwrap")
}

// Schedule transfers the command to the singleton scheduler and schedules
// it; the scheduler owns it until it ends.
func (p *CommandPtr) Schedule() error {
	if !p.valid("Schedule") {
		return core.NewFrameworkError("CommandPtr.Schedule", "command", core.ErrMovedCommandPtr)
	}
	return GetInstance().ScheduleOwned(p)
}

// Cancel cancels the command on the singleton scheduler.
func (p *CommandPtr) Cancel() {
	if !p.valid("Cancel") {
		return
	}
	GetInstance().Cancel(p.command)
}

// IsScheduled reports whether the command is scheduled on the singleton
// scheduler.
func (p *CommandPtr) IsScheduled() bool {
	if !p.valid("IsScheduled") {
		return false
	}
	return GetInstance().IsScheduled(p.command)
}

// HasRequirement reports whether the command requires the subsystem.
func (p *CommandPtr) HasRequirement(subsystem Subsystem) bool {
	if !p.valid("HasRequirement") {
		return false
	}
	return p.command.HasRequirement(subsystem)
}

// Name returns the command's display name.
func (p *CommandPtr) Name() string {
	if !p.valid("Name") {
		return ""
	}
	return p.command.Name()
}

// Repeatedly rewraps the command so it restarts every time it finishes.
func (p *CommandPtr) Repeatedly() *CommandPtr {
	if !p.valid("Repeatedly") {
		return p
	}
	r, err := newRepeatCommand(callerSite(), p.command)
	if err != nil {
		return p.fail("Repeatedly", err)
	}
	p.command = r
	return p
}

// AsProxy rewraps the command in a proxy that schedules it through the
// scheduler instead of running it inline.
func (p *CommandPtr) AsProxy() *CommandPtr {
	if !p.valid("AsProxy") {
		return p
	}
	p.command = NewProxyCommand(p.command)
	return p
}

// AndThen appends next, producing a sequential composition.
func (p *CommandPtr) AndThen(next *CommandPtr) *CommandPtr {
	if !p.valid("AndThen") {
		return p
	}
	n := next.take("AndThen")
	if n == nil {
		return p
	}
	g, err := newSequentialGroup(callerSite(), []Command{p.command, n})
	if err != nil {
		return p.fail("AndThen", err)
	}
	p.command = g
	return p
}

// AndThenRun appends a one-shot function, producing a sequential
// composition.
func (p *CommandPtr) AndThenRun(toRun func(), requirements ...Subsystem) *CommandPtr {
	if !p.valid("AndThenRun") {
		return p
	}
	g, err := newSequentialGroup(callerSite(), []Command{p.command, NewInstantCommand(toRun, requirements...)})
	if err != nil {
		return p.fail("AndThenRun", err)
	}
	p.command = g
	return p
}

// BeforeStarting prepends prev, producing a sequential composition.
func (p *CommandPtr) BeforeStarting(prev *CommandPtr) *CommandPtr {
	if !p.valid("BeforeStarting") {
		return p
	}
	b := prev.take("BeforeStarting")
	if b == nil {
		return p
	}
	g, err := newSequentialGroup(callerSite(), []Command{b, p.command})
	if err != nil {
		return p.fail("BeforeStarting", err)
	}
	p.command = g
	return p
}

// WithTimeout races the command against a wait, interrupting it when the
// duration elapses first.
func (p *CommandPtr) WithTimeout(duration time.Duration) *CommandPtr {
	if !p.valid("WithTimeout") {
		return p
	}
	g, err := newRaceGroup(callerSite(), []Command{p.command, NewWaitCommand(duration)})
	if err != nil {
		return p.fail("WithTimeout", err)
	}
	p.command = g
	return p
}

// Until races the command against the condition, interrupting it when the
// condition becomes true first.
func (p *CommandPtr) Until(condition func() bool) *CommandPtr {
	if !p.valid("Until") {
		return p
	}
	g, err := newRaceGroup(callerSite(), []Command{p.command, NewWaitUntilCommand(condition)})
	if err != nil {
		return p.fail("Until", err)
	}
	p.command = g
	return p
}

// OnlyWhile runs the command only while the condition holds, interrupting it
// when the condition becomes false.
func (p *CommandPtr) OnlyWhile(condition func() bool) *CommandPtr {
	return p.Until(func() bool { return !condition() })
}

// Unless skips the command entirely when the condition samples true at
// schedule time.
func (p *CommandPtr) Unless(condition func() bool) *CommandPtr {
	if !p.valid("Unless") {
		return p
	}
	c, err := newConditionalCommand(callerSite(), NewInstantCommand(nil), p.command, condition)
	if err != nil {
		return p.fail("Unless", err)
	}
	p.command = c
	return p
}

// OnlyIf runs the command only when the condition samples true at schedule
// time.
func (p *CommandPtr) OnlyIf(condition func() bool) *CommandPtr {
	return p.Unless(func() bool { return !condition() })
}

// AlongWith runs the command in parallel with the others; the composition
// finishes when all have finished.
func (p *CommandPtr) AlongWith(parallel ...*CommandPtr) *CommandPtr {
	if !p.valid("AlongWith") {
		return p
	}
	cmds := []Command{p.command}
	for _, other := range parallel {
		if c := other.take("AlongWith"); c != nil {
			cmds = append(cmds, c)
		}
	}
	g, err := newParallelGroup(callerSite(), cmds)
	if err != nil {
		return p.fail("AlongWith", err)
	}
	p.command = g
	return p
}

// RaceWith runs the command in parallel with the others; the composition
// finishes when any finishes, interrupting the rest.
func (p *CommandPtr) RaceWith(parallel ...*CommandPtr) *CommandPtr {
	if !p.valid("RaceWith") {
		return p
	}
	cmds := []Command{p.command}
	for _, other := range parallel {
		if c := other.take("RaceWith"); c != nil {
			cmds = append(cmds, c)
		}
	}
	g, err := newRaceGroup(callerSite(), cmds)
	if err != nil {
		return p.fail("RaceWith", err)
	}
	p.command = g
	return p
}

// WithDeadline runs the command until the deadline finishes, whichever
// happens the deadline decides.
func (p *CommandPtr) WithDeadline(deadline *CommandPtr) *CommandPtr {
	if !p.valid("WithDeadline") {
		return p
	}
	d := deadline.take("WithDeadline")
	if d == nil {
		return p
	}
	g, err := newDeadlineGroup(callerSite(), d, []Command{p.command})
	if err != nil {
		return p.fail("WithDeadline", err)
	}
	p.command = g
	return p
}

// DeadlineFor makes the command the deadline for the given parallel
// commands: they are cut short when this command finishes.
func (p *CommandPtr) DeadlineFor(parallel ...*CommandPtr) *CommandPtr {
	if !p.valid("DeadlineFor") {
		return p
	}
	var cmds []Command
	for _, other := range parallel {
		if c := other.take("DeadlineFor"); c != nil {
			cmds = append(cmds, c)
		}
	}
	g, err := newDeadlineGroup(callerSite(), p.command, cmds)
	if err != nil {
		return p.fail("DeadlineFor", err)
	}
	p.command = g
	return p
}

// FinallyDo appends a function to the command's End.
func (p *CommandPtr) FinallyDo(end func(interrupted bool)) *CommandPtr {
	if !p.valid("FinallyDo") {
		return p
	}
	w, err := newWrapperCommand(callerSite(), p.command)
	if err != nil {
		return p.fail("FinallyDo", err)
	}
	p.command = &finallyCommand{WrapperCommand: *w, onEnd: end}
	return p
}

// HandleInterrupt appends a function invoked only when the command is
// interrupted.
func (p *CommandPtr) HandleInterrupt(handler func()) *CommandPtr {
	return p.FinallyDo(func(interrupted bool) {
		if interrupted {
			handler()
		}
	})
}

// WithInterruptBehavior overrides the command's arbitration policy.
func (p *CommandPtr) WithInterruptBehavior(behavior InterruptionBehavior) *CommandPtr {
	if !p.valid("WithInterruptBehavior") {
		return p
	}
	w, err := newWrapperCommand(callerSite(), p.command)
	if err != nil {
		return p.fail("WithInterruptBehavior", err)
	}
	p.command = &interruptBehaviorCommand{WrapperCommand: *w, behavior: behavior}
	return p
}

// IgnoringDisable overrides whether the command keeps running while the
// robot is disabled.
func (p *CommandPtr) IgnoringDisable(runsWhenDisabled bool) *CommandPtr {
	if !p.valid("IgnoringDisable") {
		return p
	}
	w, err := newWrapperCommand(callerSite(), p.command)
	if err != nil {
		return p.fail("IgnoringDisable", err)
	}
	p.command = &runsWhenDisabledCommand{WrapperCommand: *w, runsWhenDisabled: runsWhenDisabled}
	return p
}

// WithName assigns a new display name without altering behavior.
func (p *CommandPtr) WithName(name string) *CommandPtr {
	if !p.valid("WithName") {
		return p
	}
	w, err := newWrapperCommand(callerSite(), p.command)
	if err != nil {
		return p.fail("WithName", err)
	}
	w.SetName(name)
	p.command = w
	return p
}

// Builder wrapper variants

type finallyCommand struct {
	WrapperCommand
	onEnd func(bool)
}

func (c *finallyCommand) End(interrupted bool) {
	c.WrapperCommand.End(interrupted)
	if c.onEnd != nil {
		c.onEnd(interrupted)
	}
}

type interruptBehaviorCommand struct {
	WrapperCommand
	behavior InterruptionBehavior
}

func (c *interruptBehaviorCommand) InterruptionBehavior() InterruptionBehavior {
	return c.behavior
}

type runsWhenDisabledCommand struct {
	WrapperCommand
	runsWhenDisabled bool
}

func (c *runsWhenDisabledCommand) RunsWhenDisabled() bool {
	return c.runsWhenDisabled
}
