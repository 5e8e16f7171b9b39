package command

// ScheduleCommand schedules the given commands on the singleton scheduler
// and finishes immediately, without waiting for them to end. Useful for
// forking off work from inside a composition without the composition
// claiming the forked commands' requirements.
type ScheduleCommand struct {
	CommandBase
	toSchedule []Command
}

// NewScheduleCommand creates a command that fires off the given commands
// when initialized.
func NewScheduleCommand(commands ...Command) *ScheduleCommand {
	s := &ScheduleCommand{
		CommandBase: NewCommandBase("ScheduleCommand"),
		toSchedule:  commands,
	}
	return s
}

func (s *ScheduleCommand) Initialize() {
	for _, c := range s.toSchedule {
		_ = GetInstance().Schedule(c)
	}
}

func (s *ScheduleCommand) IsFinished() bool { return true }

// RunsWhenDisabled returns true: scheduling alone is side-effect free until
// the scheduled commands themselves are gated by the robot state.
func (s *ScheduleCommand) RunsWhenDisabled() bool { return true }
