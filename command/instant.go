package command

import "fmt"

// InstantCommand runs a single function on initialize and finishes
// immediately.
type InstantCommand struct {
	CommandBase
	toRun func()
}

// NewInstantCommand creates a command that runs the function once and
// finishes. A nil function yields a command that does nothing, useful as a
// placeholder.
func NewInstantCommand(toRun func(), requirements ...Subsystem) *InstantCommand {
	c := &InstantCommand{
		CommandBase: NewCommandBase("InstantCommand"),
		toRun:       toRun,
	}
	c.AddRequirements(requirements...)
	return c
}

func (c *InstantCommand) Initialize() {
	if c.toRun != nil {
		c.toRun()
	}
}

func (c *InstantCommand) IsFinished() bool { return true }

// RunCommand runs a function every tick until interrupted.
type RunCommand struct {
	CommandBase
	toRun func()
}

// NewRunCommand creates a command that runs the function on every Execute
// and never finishes on its own.
func NewRunCommand(toRun func(), requirements ...Subsystem) *RunCommand {
	c := &RunCommand{
		CommandBase: NewCommandBase("RunCommand"),
		toRun:       toRun,
	}
	c.AddRequirements(requirements...)
	return c
}

func (c *RunCommand) Execute() {
	if c.toRun != nil {
		c.toRun()
	}
}

// StartEndCommand runs one function when scheduled and another when it ends,
// and never finishes on its own.
type StartEndCommand struct {
	CommandBase
	onStart func()
	onEnd   func()
}

// NewStartEndCommand creates a command from a start and an end function.
func NewStartEndCommand(onStart, onEnd func(), requirements ...Subsystem) *StartEndCommand {
	c := &StartEndCommand{
		CommandBase: NewCommandBase("StartEndCommand"),
		onStart:     onStart,
		onEnd:       onEnd,
	}
	c.AddRequirements(requirements...)
	return c
}

func (c *StartEndCommand) Initialize() {
	if c.onStart != nil {
		c.onStart()
	}
}

func (c *StartEndCommand) End(interrupted bool) {
	if c.onEnd != nil {
		c.onEnd()
	}
}

// PrintCommand prints a message once and finishes. It runs when disabled.
type PrintCommand struct {
	InstantCommand
}

// NewPrintCommand creates a command that prints the message to stdout.
func NewPrintCommand(message string) *PrintCommand {
	c := &PrintCommand{
		InstantCommand: *NewInstantCommand(func() {
			fmt.Println(message)
		}),
	}
	c.SetName("Print(" + message + ")")
	return c
}

func (c *PrintCommand) RunsWhenDisabled() bool { return true }
