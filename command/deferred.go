package command

// DeferredCommand defers construction of its real command until it is
// scheduled: the supplier runs once per scheduling, inside Initialize, and
// all further lifecycle calls forward to the supplied command. Use it when
// the command to run depends on state that is only known at schedule time.
//
// Requirements must be declared up front since the real command does not
// exist yet when the scheduler arbitrates.
type DeferredCommand struct {
	CommandBase
	supplier func() Command
	command  Command
}

// NewDeferredCommand creates a deferred command. The supplier must return a
// non-nil, non-composed command; a bad supply is replaced with a no-op so
// the scheduling still completes cleanly.
func NewDeferredCommand(supplier func() Command, requirements ...Subsystem) *DeferredCommand {
	d := &DeferredCommand{
		CommandBase: NewCommandBase("DeferredCommand"),
		supplier:    supplier,
	}
	d.AddRequirements(requirements...)
	return d
}

func (d *DeferredCommand) Initialize() {
	var supplied Command
	if d.supplier != nil {
		supplied = d.supplier()
	}
	if supplied == nil || supplied.IsComposed() {
		supplied = &noopCommand{CommandBase: NewCommandBase("DeferredCommand(null)")}
	}
	d.command = supplied
	d.command.Initialize()
}

func (d *DeferredCommand) Execute() {
	if d.command != nil {
		d.command.Execute()
	}
}

func (d *DeferredCommand) IsFinished() bool {
	if d.command == nil {
		return true
	}
	return d.command.IsFinished()
}

func (d *DeferredCommand) End(interrupted bool) {
	if d.command != nil {
		d.command.End(interrupted)
		d.command = nil
	}
}

// noopCommand finishes immediately; it stands in when a deferred supplier
// misbehaves.
type noopCommand struct {
	CommandBase
}

func (n *noopCommand) IsFinished() bool { return true }
