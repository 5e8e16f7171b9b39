package command

// WrapperCommand delegates every hook to an inner command while carrying its
// own name and identity. Embed it to override individual policy queries or
// to append behavior to End; the builder decorators are built this way.
//
// The inner command is marked composed at construction.
type WrapperCommand struct {
	CommandBase
	command Command
}

// NewWrapperCommand wraps the given command. Wrapping a command that is
// already composed or currently scheduled is an illegal use.
func NewWrapperCommand(c Command) (*WrapperCommand, error) {
	return newWrapperCommand(compositionSiteCaller(), c)
}

func newWrapperCommand(site string, c Command) (*WrapperCommand, error) {
	if err := requireUngroupedAndUnscheduled("NewWrapperCommand", c); err != nil {
		return nil, err
	}
	markComposed(site, c)
	w := &WrapperCommand{
		CommandBase: NewCommandBase(c.Name()),
		command:     c,
	}
	w.AddRequirements(c.Requirements()...)
	return w, nil
}

// Command returns the wrapped command.
func (w *WrapperCommand) Command() Command { return w.command }

func (w *WrapperCommand) Initialize() { w.command.Initialize() }

func (w *WrapperCommand) Execute() { w.command.Execute() }

func (w *WrapperCommand) End(interrupted bool) { w.command.End(interrupted) }

func (w *WrapperCommand) IsFinished() bool { return w.command.IsFinished() }

func (w *WrapperCommand) RunsWhenDisabled() bool {
	return w.command.RunsWhenDisabled()
}

func (w *WrapperCommand) InterruptionBehavior() InterruptionBehavior {
	return w.command.InterruptionBehavior()
}
