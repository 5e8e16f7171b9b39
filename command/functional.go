package command

// FunctionalCommand adapts four closures into a full command lifecycle.
// Any closure may be nil, in which case the corresponding hook is a no-op
// (IsFinished defaults to never finishing).
type FunctionalCommand struct {
	CommandBase
	onInit     func()
	onExecute  func()
	onEnd      func(interrupted bool)
	isFinished func() bool
}

// NewFunctionalCommand builds a command from the four lifecycle closures.
func NewFunctionalCommand(onInit, onExecute func(), onEnd func(bool), isFinished func() bool, requirements ...Subsystem) *FunctionalCommand {
	f := &FunctionalCommand{
		CommandBase: NewCommandBase("FunctionalCommand"),
		onInit:      onInit,
		onExecute:   onExecute,
		onEnd:       onEnd,
		isFinished:  isFinished,
	}
	f.AddRequirements(requirements...)
	return f
}

func (f *FunctionalCommand) Initialize() {
	if f.onInit != nil {
		f.onInit()
	}
}

func (f *FunctionalCommand) Execute() {
	if f.onExecute != nil {
		f.onExecute()
	}
}

func (f *FunctionalCommand) End(interrupted bool) {
	if f.onEnd != nil {
		f.onEnd(interrupted)
	}
}

func (f *FunctionalCommand) IsFinished() bool {
	if f.isFinished == nil {
		return false
	}
	return f.isFinished()
}
