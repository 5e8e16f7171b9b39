package command

import (
	"github.com/itsneelabh/rovermind/core"
)

const notScheduled = -1

// SequentialCommandGroup runs its children one after another. Each child is
// initialized when the previous one finishes; the group finishes when the
// cursor passes the last child. Interrupting the group interrupts only the
// currently-active child.
//
// The group's requirements are the union of its children's. It runs when
// disabled only if every child does, and yields to incoming commands
// (CancelSelf) if any child is CancelSelf; otherwise it is CancelIncoming.
type SequentialCommandGroup struct {
	CommandBase
	commands          []Command
	currentIndex      int
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewSequentialCommandGroup creates a sequential composition of the given
// commands. Each child is marked composed; passing a command that is already
// composed or currently scheduled is an illegal use.
func NewSequentialCommandGroup(commands ...Command) (*SequentialCommandGroup, error) {
	return newSequentialGroup(compositionSiteCaller(), commands)
}

func newSequentialGroup(site string, commands []Command) (*SequentialCommandGroup, error) {
	g := &SequentialCommandGroup{
		CommandBase:       NewCommandBase("SequentialCommandGroup"),
		currentIndex:      notScheduled,
		runsWhenDisabled:  true,
		interruptBehavior: CancelIncoming,
	}
	if err := g.addCommands(site, commands); err != nil {
		return nil, err
	}
	return g, nil
}

// AddCommands appends children to the group. Adding to a running group is an
// illegal use.
func (g *SequentialCommandGroup) AddCommands(commands ...Command) error {
	return g.addCommands(compositionSiteCaller(), commands)
}

func (g *SequentialCommandGroup) addCommands(site string, commands []Command) error {
	if g.currentIndex != notScheduled {
		return &core.FrameworkError{
			Op:   "SequentialCommandGroup.AddCommands",
			Kind: "command",
			ID:   g.Name(),
			Err:  core.ErrCompositionRunning,
		}
	}
	if err := requireUngroupedAndUnscheduled("SequentialCommandGroup.AddCommands", commands...); err != nil {
		return err
	}
	markComposed(site, commands...)
	for _, c := range commands {
		g.commands = append(g.commands, c)
		g.AddRequirements(c.Requirements()...)
		g.runsWhenDisabled = g.runsWhenDisabled && c.RunsWhenDisabled()
		if c.InterruptionBehavior() == CancelSelf {
			g.interruptBehavior = CancelSelf
		}
	}
	return nil
}

func (g *SequentialCommandGroup) Initialize() {
	g.currentIndex = 0
	if len(g.commands) > 0 {
		g.commands[0].Initialize()
	}
}

func (g *SequentialCommandGroup) Execute() {
	if g.currentIndex < 0 || g.currentIndex >= len(g.commands) {
		return
	}
	current := g.commands[g.currentIndex]
	current.Execute()
	if current.IsFinished() {
		current.End(false)
		g.currentIndex++
		if g.currentIndex < len(g.commands) {
			g.commands[g.currentIndex].Initialize()
		}
	}
}

func (g *SequentialCommandGroup) End(interrupted bool) {
	if interrupted && g.currentIndex >= 0 && g.currentIndex < len(g.commands) {
		g.commands[g.currentIndex].End(true)
	}
	g.currentIndex = notScheduled
}

func (g *SequentialCommandGroup) IsFinished() bool {
	return g.currentIndex >= len(g.commands)
}

func (g *SequentialCommandGroup) RunsWhenDisabled() bool {
	return g.runsWhenDisabled
}

func (g *SequentialCommandGroup) InterruptionBehavior() InterruptionBehavior {
	return g.interruptBehavior
}
