package command

import (
	"github.com/itsneelabh/rovermind/core"
)

// ParallelDeadlineGroup runs its children concurrently until its deadline
// command finishes; children still running at that point are cut short with
// End(true). Non-deadline children that finish early get End(false)
// immediately and simply stop being polled.
//
// Children must have disjoint requirements.
type ParallelDeadlineGroup struct {
	CommandBase
	deadline          Command
	commands          []Command
	running           map[Command]bool
	finished          bool
	groupRunning      bool
	runsWhenDisabled  bool
	interruptBehavior InterruptionBehavior
}

// NewParallelDeadlineGroup creates a deadline composition: the group runs
// until deadline finishes. Each child (deadline included) is marked
// composed; passing a command that is already composed, currently
// scheduled, or shares requirements with another child is an illegal use.
func NewParallelDeadlineGroup(deadline Command, commands ...Command) (*ParallelDeadlineGroup, error) {
	site := compositionSiteCaller()
	return newDeadlineGroup(site, deadline, commands)
}

func newDeadlineGroup(site string, deadline Command, commands []Command) (*ParallelDeadlineGroup, error) {
	g := &ParallelDeadlineGroup{
		CommandBase:       NewCommandBase("ParallelDeadlineGroup"),
		running:           make(map[Command]bool),
		runsWhenDisabled:  true,
		interruptBehavior: CancelIncoming,
	}
	if err := g.addCommands(site, append([]Command{deadline}, commands...)); err != nil {
		return nil, err
	}
	g.deadline = deadline
	return g, nil
}

// AddCommands appends non-deadline children to the group. Adding to a
// running group is an illegal use.
func (g *ParallelDeadlineGroup) AddCommands(commands ...Command) error {
	return g.addCommands(compositionSiteCaller(), commands)
}

// SetDeadline replaces the group's deadline. The new deadline is added to
// the group if not already a member.
func (g *ParallelDeadlineGroup) SetDeadline(deadline Command) error {
	if deadline == nil {
		return nil
	}
	for _, c := range g.commands {
		if c == deadline {
			g.deadline = deadline
			return nil
		}
	}
	if err := g.addCommands(compositionSiteCaller(), []Command{deadline}); err != nil {
		return err
	}
	g.deadline = deadline
	return nil
}

func (g *ParallelDeadlineGroup) addCommands(site string, commands []Command) error {
	if g.groupRunning {
		return &core.FrameworkError{
			Op:   "ParallelDeadlineGroup.AddCommands",
			Kind: "command",
			ID:   g.Name(),
			Err:  core.ErrCompositionRunning,
		}
	}
	if err := requireUngroupedAndUnscheduled("ParallelDeadlineGroup.AddCommands", commands...); err != nil {
		return err
	}
	for _, c := range commands {
		if err := requireDisjoint("ParallelDeadlineGroup.AddCommands", &g.CommandBase, c); err != nil {
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

func (g *ParallelDeadlineGroup) Initialize() {
	g.groupRunning = true
	g.finished = false
	for _, c := range g.commands {
		c.Initialize()
		g.running[c] = true
	}
}

func (g *ParallelDeadlineGroup) Execute() {
	for _, c := range g.commands {
		if !g.running[c] {
			continue
		}
		c.Execute()
		if c.IsFinished() {
			c.End(false)
			g.running[c] = false
			if c == g.deadline {
				g.finished = true
			}
		}
	}
}

func (g *ParallelDeadlineGroup) End(interrupted bool) {
	for _, c := range g.commands {
		if g.running[c] {
			c.End(true)
			g.running[c] = false
		}
	}
	g.groupRunning = false
}

func (g *ParallelDeadlineGroup) IsFinished() bool {
	return g.finished
}

func (g *ParallelDeadlineGroup) RunsWhenDisabled() bool {
	return g.runsWhenDisabled
}

func (g *ParallelDeadlineGroup) InterruptionBehavior() InterruptionBehavior {
	return g.interruptBehavior
}
