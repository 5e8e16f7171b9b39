package command

import (
	"testing"

	"github.com/itsneelabh/rovermind/core"
)

// testSubsystem counts periodic invocations.
type testSubsystem struct {
	SubsystemBase
	periodicCount    int
	simPeriodicCount int
}

func newTestSubsystem(name string) *testSubsystem {
	return &testSubsystem{SubsystemBase: NewSubsystemBase(name)}
}

func (s *testSubsystem) Periodic() { s.periodicCount++ }

func (s *testSubsystem) SimulationPeriodic() { s.simPeriodicCount++ }

// mockCommand records lifecycle calls and exposes knobs for every policy
// query.
type mockCommand struct {
	CommandBase
	initCount       int
	execCount       int
	endCount        int
	lastInterrupted bool
	finished        bool
	behavior        InterruptionBehavior
	disabledOK      bool

	onInit func()
	onExec func()
	onEnd  func(interrupted bool)
}

func newMockCommand(name string, requirements ...Subsystem) *mockCommand {
	m := &mockCommand{CommandBase: NewCommandBase(name)}
	m.AddRequirements(requirements...)
	return m
}

func (m *mockCommand) Initialize() {
	m.initCount++
	if m.onInit != nil {
		m.onInit()
	}
}

func (m *mockCommand) Execute() {
	m.execCount++
	if m.onExec != nil {
		m.onExec()
	}
}

func (m *mockCommand) IsFinished() bool { return m.finished }

func (m *mockCommand) End(interrupted bool) {
	m.endCount++
	m.lastInterrupted = interrupted
	if m.onEnd != nil {
		m.onEnd(interrupted)
	}
}

func (m *mockCommand) RunsWhenDisabled() bool { return m.disabledOK }

func (m *mockCommand) InterruptionBehavior() InterruptionBehavior { return m.behavior }

// fixedRobotState is a fake robot mode signal.
type fixedRobotState struct {
	disabled bool
}

func (f *fixedRobotState) IsDisabled() bool { return f.disabled }

func newTestScheduler() *Scheduler {
	cfg := core.DefaultConfig()
	return NewScheduler(cfg)
}

// assertSchedulerInvariants checks the requirement-map invariants that must
// hold after every schedule, cancel, and run.
func assertSchedulerInvariants(t *testing.T, s *Scheduler) {
	t.Helper()
	// Every scheduled command's requirements point back at it.
	for c := range s.scheduled {
		for _, r := range c.Requirements() {
			if owner := s.requirements[r]; owner != c {
				t.Fatalf("requirement %s of scheduled command %s owned by %v", r.Name(), c.Name(), owner)
			}
		}
	}
	// Every requirement entry references a scheduled command requiring it.
	for r, c := range s.requirements {
		if _, ok := s.scheduled[c]; !ok {
			t.Fatalf("requirement %s owned by unscheduled command %s", r.Name(), c.Name())
		}
		if !c.HasRequirement(r) {
			t.Fatalf("requirement %s owned by command %s that does not require it", r.Name(), c.Name())
		}
	}
	// Order slice and membership set agree.
	if len(s.order) != len(s.scheduled) {
		t.Fatalf("order slice (%d) and scheduled set (%d) diverged", len(s.order), len(s.scheduled))
	}
	// No two scheduled commands share a requirement.
	seen := make(map[Subsystem]Command)
	for _, c := range s.order {
		for _, r := range c.Requirements() {
			if other, ok := seen[r]; ok {
				t.Fatalf("commands %s and %s both scheduled requiring %s", other.Name(), c.Name(), r.Name())
			}
			seen[r] = c
		}
	}
	// Composed commands never appear in the scheduled set directly.
	for c := range s.scheduled {
		if c.IsComposed() {
			t.Fatalf("composed command %s is scheduled directly", c.Name())
		}
	}
}
