package command

import (
	"github.com/itsneelabh/rovermind/core"
)

// ParallelRaceGroup runs its children concurrently and finishes as soon as
// any child finishes. The winner's End(false) runs during the execute pass;
// every other child receives End(true) when the group ends. The group tracks
// per-child whether End has been called, so no child is ever ended twice.
//
// Children must have disjoint requirements.
type ParallelRaceGroup struct {
	CommandBase
	commands          []Command
	ended             map[Command]bool
	finished          bool
	groupRunning      bool
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewParallelRaceGroup creates a race composition of the given commands.
// Each child is marked composed; passing a command that is already composed,
// currently scheduled, or shares requirements with another child is an
// illegal use.
func NewParallelRaceGroup(commands ...Command) (*ParallelRaceGroup, error) {
	return newRaceGroup(compositionSiteCaller(), commands)
}

func newRaceGroup(site string, commands []Command) (*ParallelRaceGroup, error) {
	g := &ParallelRaceGroup{
		CommandBase:       NewCommandBase("ParallelRaceGroup"),
		ended:             make(map[Command]bool),
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
func (g *ParallelRaceGroup) AddCommands(commands ...Command) error {
	return g.addCommands(compositionSiteCaller(), commands)
}

func (g *ParallelRaceGroup) addCommands(site string, commands []Command) error {
	if g.groupRunning {
		return &core.FrameworkError{
			Op:   "ParallelRaceGroup.AddCommands",
			Kind: "command",
			ID:   g.Name(),
			Err:  core.ErrCompositionRunning,
		}
	}
	if err := requireUngroupedAndUnscheduled("ParallelRaceGroup.AddCommands", commands...); err != nil {
		return err
	}
	for _, c := range commands {
		if err := requireDisjoint("ParallelRaceGroup.AddCommands", &g.CommandBase, c); err != nil {
			return err
		}
		markComposed(site, c)
		g.commands = append(g.commands, c)
		g.AddRequirements(c.Requirements()...)
		g.runsWhenDisabled = g.runsWhenDisabled && c.RunsWhenDisabled()
		if c.InterruptionBehavior() == CancelSelf {
			g.interruptBehavior = CancelSelf
		}
	}
	return nil
}

func (g *ParallelRaceGroup) Initialize() {
	g.groupRunning = true
	g.finished = false
	for _, c := range g.commands {
		g.ended[c] = false
		c.Initialize()
	}
}

func (g *ParallelRaceGroup) Execute() {
	for _, c := range g.commands {
		if g.ended[c] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			c.End(false)
			g.ended[c] = true
			g.finished = true
		}
	}
}

func (g *ParallelRaceGroup) End(interrupted bool) {
	for _, c := range g.commands {
		if !g.ended[c] {
			c.End(true)
			g.ended[c] = true
		}
	}
	g.groupRunning = false
}

func (g *ParallelRaceGroup) IsFinished() bool {
	return g.finished
}

func (g *ParallelRaceGroup) RunsWhenDisabled() bool {
	return g.runsWhenDisabled
}

func (g *ParallelRaceGroup) InterruptionBehavior() InterruptionBehavior {
	return g.interruptBehavior
}
