package command

// RepeatCommand runs its child repeatedly: whenever the child finishes it is
// ended with End(false) and re-initialized on the next tick. The repeat
// itself never finishes; it runs until interrupted.
type RepeatCommand struct {
	CommandBase
	command Command
	ended   bool
}

// NewRepeatCommand wraps the given command so it restarts whenever it
// finishes. The child is marked composed.
func NewRepeatCommand(c Command) (*RepeatCommand, error) {
	return newRepeatCommand(compositionSiteCaller(), c)
}

func newRepeatCommand(site string, c Command) (*RepeatCommand, error) {
	if err := requireUngroupedAndUnscheduled("NewRepeatCommand", c); err != nil {
		return nil, err
	}
	markComposed(site, c)
	r := &RepeatCommand{
		CommandBase: NewCommandBase("Repeat(" + c.Name() + ")"),
		command:     c,
	}
	r.AddRequirements(c.Requirements()...)
	return r, nil
}

func (r *RepeatCommand) Initialize() {
	r.ended = false
	r.command.Initialize()
}

func (r *RepeatCommand) Execute() {
	if r.ended {
		r.ended = false
		r.command.Initialize()
	}
	r.command.Execute()
	if r.command.IsFinished() {
		r.command.End(false)
		r.ended = true
	}
}

func (r *RepeatCommand) End(interrupted bool) {
	// The child has already been ended for this cycle if it just finished.
	if !r.ended {
		r.command.End(interrupted)
	}
	r.ended = false
}

func (r *RepeatCommand) IsFinished() bool { return false }

func (r *RepeatCommand) RunsWhenDisabled() bool {
	return r.command.RunsWhenDisabled()
}

func (r *RepeatCommand) InterruptionBehavior() InterruptionBehavior {
	return r.command.InterruptionBehavior()
}
