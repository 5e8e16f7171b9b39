package command

import (
	"github.com/itsneelabh/rovermind/core"
)

// ParallelCommandGroup runs its children concurrently within the tick. The
// group finishes when every child has finished; each child's End(false) runs
// the moment it reports finished. Interrupting the group interrupts every
// child still running.
//
// Children must have disjoint requirements.
type ParallelCommandGroup struct {
	CommandBase
	commands          []Command
	running           map[Command]bool
	groupRunning      bool
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewParallelCommandGroup creates a parallel-all composition of the given
// commands. Each child is marked composed; passing a command that is already
// composed, currently scheduled, or shares requirements with another child
// is an illegal use.
func NewParallelCommandGroup(commands ...Command) (*ParallelCommandGroup, error) {
	return newParallelGroup(compositionSiteCaller(), commands)
}

func newParallelGroup(site string, commands []Command) (*ParallelCommandGroup, error) {
	g := &ParallelCommandGroup{
		CommandBase:       NewCommandBase("ParallelCommandGroup"),
		running:           make(map[Command]bool),
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
func (g *ParallelCommandGroup) AddCommands(commands ...Command) error {
	return g.addCommands(compositionSiteCaller(), commands)
}

func (g *ParallelCommandGroup) addCommands(site string, commands []Command) error {
	if g.groupRunning {
		return &core.FrameworkError{
			Op:   "ParallelCommandGroup.AddCommands",
			Kind: "command",
			ID:   g.Name(),
			Err:  core.ErrCompositionRunning,
		}
	}
	if err := requireUngroupedAndUnscheduled("ParallelCommandGroup.AddCommands", commands...); err != nil {
		return err
	}
	for _, c := range commands {
		if err := requireDisjoint("ParallelCommandGroup.AddCommands", &g.CommandBase, c); err != nil {
			return err
		}
		markComposed(site, c)
		g.commands = append(g.commands, c)
		g.running[c] = false
		g.AddRequirements(c.Requirements()...)
		g.runsWhenDisabled = g.runsWhenDisabled && c.RunsWhenDisabled()
		if c.InterruptionBehavior() == CancelSelf {
			g.interruptBehavior = CancelSelf
		}
	}
	return nil
}

func (g *ParallelCommandGroup) Initialize() {
	g.groupRunning = true
	for _, c := range g.commands {
		c.Initialize()
		g.running[c] = true
	}
}

func (g *ParallelCommandGroup) Execute() {
	for _, c := range g.commands {
		if !g.running[c] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			c.End(false)
			g.running[c] = false
		}
	}
}

func (g *ParallelCommandGroup) End(interrupted bool) {
	if interrupted {
		for _, c := range g.commands {
			if g.running[c] {
				c.End(true)
				g.running[c] = false
			}
		}
	}
	g.groupRunning = false
}

func (g *ParallelCommandGroup) IsFinished() bool {
	for _, c := range g.commands {
		if g.running[c] {
			return false
		}
	}
	return true
}

func (g *ParallelCommandGroup) RunsWhenDisabled() bool {
	return g.runsWhenDisabled
}

func (g *ParallelCommandGroup) InterruptionBehavior() InterruptionBehavior {
	return g.interruptBehavior
}

// requireDisjoint rejects additions whose requirements overlap the group's
// existing requirement union.
func requireDisjoint(op string, group *CommandBase, commands ...Command) error {
	for _, c := range commands {
		if c == nil {
			continue
		}
		for _, r := range c.Requirements() {
			if group.HasRequirement(r) {
				return &core.FrameworkError{
					Op:   op,
					Kind: "command",
					ID:   c.Name(),
					Err:  core.ErrSharedRequirements,
				}
			}
		}
	}
	return nil
}
