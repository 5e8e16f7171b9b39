package command

// ConditionalCommand runs one of two commands, chosen by sampling the
// condition at Initialize. The group's requirements are the union of both
// branches, since either may run.
type ConditionalCommand struct {
	CommandBase
	onTrue            Command
	onFalse           Command
	condition         func() bool
	selected          Command
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewConditionalCommand creates a command that runs onTrue when the
// condition samples true at schedule time and onFalse otherwise. Both
// branches are marked composed.
func NewConditionalCommand(onTrue, onFalse Command, condition func() bool) (*ConditionalCommand, error) {
	return newConditionalCommand(compositionSiteCaller(), onTrue, onFalse, condition)
}

func newConditionalCommand(site string, onTrue, onFalse Command, condition func() bool) (*ConditionalCommand, error) {
	if err := requireUngroupedAndUnscheduled("NewConditionalCommand", onTrue, onFalse); err != nil {
		return nil, err
	}
	markComposed(site, onTrue, onFalse)
	c := &ConditionalCommand{
		CommandBase:       NewCommandBase("ConditionalCommand"),
		onTrue:            onTrue,
		onFalse:           onFalse,
		condition:         condition,
		runsWhenDisabled:  onTrue.RunsWhenDisabled() && onFalse.RunsWhenDisabled(),
		interruptBehavior: CancelIncoming,
	}
	c.AddRequirements(onTrue.Requirements()...)
	c.AddRequirements(onFalse.Requirements()...)
	if onTrue.InterruptionBehavior() == CancelSelf || onFalse.InterruptionBehavior() == CancelSelf {
		c.interruptBehavior = CancelSelf
	}
	return c, nil
}

func (c *ConditionalCommand) Initialize() {
	if c.condition != nil && c.condition() {
		c.selected = c.onTrue
	} else {
		c.selected = c.onFalse
	}
	c.selected.Initialize()
}

func (c *ConditionalCommand) Execute() {
	c.selected.Execute()
}

func (c *ConditionalCommand) End(interrupted bool) {
	if c.selected != nil {
		c.selected.End(interrupted)
	}
	c.selected = nil
}

func (c *ConditionalCommand) IsFinished() bool {
	if c.selected == nil {
		return true
	}
	return c.selected.IsFinished()
}

func (c *ConditionalCommand) RunsWhenDisabled() bool {
	return c.runsWhenDisabled
}

func (c *ConditionalCommand) InterruptionBehavior() InterruptionBehavior {
	return c.interruptBehavior
}

// SelectCommand runs the command keyed by the selector's value at
// Initialize. An unknown key selects a stand-in that reports the miss.
// Requirements are the union of all candidates'.
type SelectCommand struct {
	CommandBase
	commands          map[any]Command
	selector          func() any
	selected          Command
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewSelectCommand creates a command that defers to the entry the selector
// picks at schedule time. Every candidate is marked composed.
func NewSelectCommand(selector func() any, commands map[any]Command) (*SelectCommand, error) {
	site := compositionSiteCaller()
	all := make([]Command, 0, len(commands))
	for _, c := range commands {
		all = append(all, c)
	}
	if err := requireUngroupedAndUnscheduled("NewSelectCommand", all...); err != nil {
		return nil, err
	}
	markComposed(site, all...)
	s := &SelectCommand{
		CommandBase:       NewCommandBase("SelectCommand"),
		commands:          commands,
		selector:          selector,
		runsWhenDisabled:  true,
		interruptBehavior: CancelIncoming,
	}
	for _, c := range commands {
		s.AddRequirements(c.Requirements()...)
		s.runsWhenDisabled = s.runsWhenDisabled && c.RunsWhenDisabled()
		if c.InterruptionBehavior() == CancelSelf {
			s.interruptBehavior = CancelSelf
		}
	}
	return s, nil
}

func (s *SelectCommand) Initialize() {
	var key any
	if s.selector != nil {
		key = s.selector()
	}
	if c, ok := s.commands[key]; ok {
		s.selected = c
	} else {
		s.selected = NewPrintCommand("SelectCommand selector value does not correspond to any command!")
	}
	s.selected.Initialize()
}

func (s *SelectCommand) Execute() {
	s.selected.Execute()
}

func (s *SelectCommand) End(interrupted bool) {
	if s.selected != nil {
		s.selected.End(interrupted)
	}
	s.selected = nil
}

func (s *SelectCommand) IsFinished() bool {
	if s.selected == nil {
		return true
	}
	return s.selected.IsFinished()
}

func (s *SelectCommand) RunsWhenDisabled() bool {
	return s.runsWhenDisabled
}

func (s *SelectCommand) InterruptionBehavior() InterruptionBehavior {
	return s.interruptBehavior
}
