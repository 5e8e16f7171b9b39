package command

import (
	"fmt"
	"time"
)

// WaitCommand does nothing until the given duration has elapsed since it was
// scheduled. It runs when disabled, so waits inside autonomous routines
// survive mode transitions.
type WaitCommand struct {
	CommandBase
	duration time.Duration
	deadline time.Time

	// now is the time source; tests stub it.
	now func() time.Time
}

// NewWaitCommand creates a command that finishes after the duration elapses.
func NewWaitCommand(duration time.Duration) *WaitCommand {
	return &WaitCommand{
		CommandBase: NewCommandBase(fmt.Sprintf("Wait(%s)", duration)),
		duration:    duration,
		now:         time.Now,
	}
}

func (c *WaitCommand) Initialize() {
	c.deadline = c.now().Add(c.duration)
}

func (c *WaitCommand) IsFinished() bool {
	return !c.now().Before(c.deadline)
}

func (c *WaitCommand) RunsWhenDisabled() bool { return true }

// WaitUntilCommand does nothing until its condition returns true. It runs
// when disabled.
type WaitUntilCommand struct {
	CommandBase
	condition func() bool
}

// NewWaitUntilCommand creates a command that finishes when the condition
// becomes true.
func NewWaitUntilCommand(condition func() bool) *WaitUntilCommand {
	return &WaitUntilCommand{
		CommandBase: NewCommandBase("WaitUntilCommand"),
		condition:   condition,
	}
}

func (c *WaitUntilCommand) IsFinished() bool {
	if c.condition == nil {
		return true
	}
	return c.condition()
}

func (c *WaitUntilCommand) RunsWhenDisabled() bool { return true }
