package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/rovermind/core"
)

func TestSequentialRunsChildrenInOrder(t *testing.T) {
	s := newTestScheduler()
	m1 := newMockCommand("m1")
	m2 := newMockCommand("m2")
	m3 := newMockCommand("m3")

	g, err := NewSequentialCommandGroup(m1, m2, m3)
	require.NoError(t, err)
	require.NoError(t, s.Schedule(g))

	s.Run()
	m1.finished = true
	s.Run()
	m2.finished = true
	s.Run()
	m3.finished = true
	s.Run()

	for i, m := range []*mockCommand{m1, m2, m3} {
		assert.Equalf(t, 1, m.initCount, "m%d initialize", i+1)
		assert.Equalf(t, 1, m.endCount, "m%d end", i+1)
		assert.Falsef(t, m.lastInterrupted, "m%d interrupted", i+1)
	}
	// m1 ran twice (the tick before and the tick of finishing), the others
	// once each before their finish flag was seen.
	assert.Equal(t, 2, m1.execCount)
	assert.False(t, s.IsScheduled(g))
}

func TestSequentialChildLifecycleOrdering(t *testing.T) {
	var events []string
	logging := func(name string) (*FunctionalCommand, *bool) {
		done := new(bool)
		cmd := NewFunctionalCommand(
			func() { events = append(events, name+".init") },
			func() { events = append(events, name+".exec") },
			func(bool) { events = append(events, name+".end") },
			func() bool { return *done },
		)
		return cmd, done
	}

	first, firstDone := logging("first")
	second, _ := logging("second")

	g, err := NewSequentialCommandGroup(first, second)
	require.NoError(t, err)

	s := newTestScheduler()
	require.NoError(t, s.Schedule(g))
	*firstDone = true
	s.Run()

	// The second child is initialized in the same tick its predecessor
	// finishes, but first executes on the next tick.
	assert.Equal(t, []string{"first.init", "first.exec", "first.end", "second.init"}, events)

	s.Run()
	assert.Equal(t, "second.exec", events[len(events)-1])
}

func TestSequentialZeroChildrenFinishesFirstPoll(t *testing.T) {
	s := newTestScheduler()
	g, err := NewSequentialCommandGroup()
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()

	assert.False(t, s.IsScheduled(g))
}

func TestSequentialInterruptReachesCurrentChild(t *testing.T) {
	s := newTestScheduler()
	m1 := newMockCommand("m1")
	m2 := newMockCommand("m2")
	g, err := NewSequentialCommandGroup(m1, m2)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()
	s.Cancel(g)

	assert.Equal(t, 1, m1.endCount)
	assert.True(t, m1.lastInterrupted)
	assert.Equal(t, 0, m2.initCount)
	assert.Equal(t, 0, m2.endCount)
}

func TestSequentialAddWhileRunningFails(t *testing.T) {
	s := newTestScheduler()
	g, err := NewSequentialCommandGroup(newMockCommand("m1"))
	require.NoError(t, err)
	require.NoError(t, s.Schedule(g))

	err = g.AddCommands(newMockCommand("m2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCompositionRunning)
}

func TestSequentialRejectsComposedChild(t *testing.T) {
	child := newMockCommand("child")
	_, err := NewSequentialCommandGroup(child)
	require.NoError(t, err)

	_, err = NewSequentialCommandGroup(child)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCommandComposed)
}

func TestSequentialRejectsScheduledChild(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)

	child := newMockCommand("child")
	require.NoError(t, GetInstance().Schedule(child))

	_, err := NewSequentialCommandGroup(child)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCommandScheduled)
}

func TestSequentialPolicyAggregation(t *testing.T) {
	exempt := newMockCommand("exempt")
	exempt.disabledOK = true
	exempt.behavior = CancelIncoming
	normal := newMockCommand("normal")
	normal.disabledOK = true

	g, err := NewSequentialCommandGroup(exempt, normal)
	require.NoError(t, err)

	// Conjunction of runs-when-disabled; CancelSelf wins when any child
	// yields.
	assert.True(t, g.RunsWhenDisabled())
	assert.Equal(t, CancelSelf, g.InterruptionBehavior())

	stubborn := newMockCommand("stubborn")
	stubborn.behavior = CancelIncoming
	g2, err := NewSequentialCommandGroup(stubborn)
	require.NoError(t, err)
	assert.Equal(t, CancelIncoming, g2.InterruptionBehavior())
	assert.False(t, g2.RunsWhenDisabled())
}

func TestSequentialRequirementsAreUnion(t *testing.T) {
	a := newTestSubsystem("A")
	b := newTestSubsystem("B")
	g, err := NewSequentialCommandGroup(newMockCommand("m1", a), newMockCommand("m2", b))
	require.NoError(t, err)

	assert.True(t, g.HasRequirement(a))
	assert.True(t, g.HasRequirement(b))
	assert.Len(t, g.Requirements(), 2)
}
