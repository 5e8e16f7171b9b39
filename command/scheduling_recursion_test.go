package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pathological self-modification: commands that cancel themselves or
// schedule siblings from inside their own lifecycle hooks.

func TestSelfCancelFromInitializeFreesRequirements(t *testing.T) {
	s := newTestScheduler()
	a := newTestSubsystem("A")
	s.RegisterSubsystem(a)

	var c *mockCommand
	c = newMockCommand("selfCancel", a)
	c.onInit = func() { s.Cancel(c) }

	require.NoError(t, s.Schedule(c))

	assert.False(t, s.IsScheduled(c))
	assert.Equal(t, 1, c.initCount)
	assert.Equal(t, 1, c.endCount)
	assert.True(t, c.lastInterrupted)
	assert.Nil(t, s.Requiring(a))
	assertSchedulerInvariants(t, s)
}

func TestSelfCancelFromExecuteEndsOnce(t *testing.T) {
	s := newTestScheduler()
	var c *mockCommand
	c = newMockCommand("selfCancel")
	c.onExec = func() { s.Cancel(c) }
	// IsFinished would also report true; the run loop must not double-end.
	c.finished = true

	require.NoError(t, s.Schedule(c))
	s.Run()

	assert.Equal(t, 1, c.endCount)
	assert.True(t, c.lastInterrupted)
	assert.False(t, s.IsScheduled(c))
}

func TestCancelFromEndDoesNotReenter(t *testing.T) {
	s := newTestScheduler()
	var c *mockCommand
	c = newMockCommand("endCancelsSelf")
	c.onEnd = func(bool) {
		// By the time End runs the command is already out of the scheduled
		// set; this must be a silent no-op.
		s.Cancel(c)
	}

	require.NoError(t, s.Schedule(c))
	s.Cancel(c)

	assert.Equal(t, 1, c.endCount)
}

func TestEndVisibilityContract(t *testing.T) {
	s := newTestScheduler()
	var scheduledDuringEnd bool
	var c *mockCommand
	c = newMockCommand("c")
	c.onEnd = func(bool) { scheduledDuringEnd = s.IsScheduled(c) }

	require.NoError(t, s.Schedule(c))
	s.Cancel(c)
	assert.False(t, scheduledDuringEnd)

	c2 := newMockCommand("c2")
	c2.onEnd = func(bool) { scheduledDuringEnd = s.IsScheduled(c2) }
	c2.finished = true
	require.NoError(t, s.Schedule(c2))
	scheduledDuringEnd = true
	s.Run()
	assert.False(t, scheduledDuringEnd)
}

func TestScheduleSelfReplacementFromEnd(t *testing.T) {
	s := newTestScheduler()
	a := newTestSubsystem("A")
	replacement := newMockCommand("replacement", a)

	first := newMockCommand("first", a)
	first.onEnd = func(bool) { _ = s.Schedule(replacement) }
	first.finished = true

	require.NoError(t, s.Schedule(first))
	s.Run()

	// first's requirements were released before End ran, so the replacement
	// schedules cleanly within the same tick.
	assert.True(t, s.IsScheduled(replacement))
	assert.Equal(t, 1, replacement.initCount)
	assertSchedulerInvariants(t, s)
}

func TestPreemptionFromInitialize(t *testing.T) {
	s := newTestScheduler()
	a := newTestSubsystem("A")
	holder := newMockCommand("holder", a)

	usurper := newMockCommand("usurper", a)
	trigger := newMockCommand("trigger")
	trigger.onInit = func() { _ = s.Schedule(usurper) }

	require.NoError(t, s.Schedule(holder))
	require.NoError(t, s.Schedule(trigger))

	assert.False(t, s.IsScheduled(holder))
	assert.Equal(t, 1, holder.endCount)
	assert.True(t, s.IsScheduled(usurper))
	assertSchedulerInvariants(t, s)
}

func TestDefaultCommandSelfCancelDoesNotLoopForever(t *testing.T) {
	s := newTestScheduler()
	a := newTestSubsystem("A")
	s.RegisterSubsystem(a)

	var d *mockCommand
	d = newMockCommand("flaky", a)
	d.onInit = func() { s.Cancel(d) }
	require.NoError(t, s.SetDefaultCommand(a, d))

	// Each tick schedules the default once; its self-cancel leaves the
	// subsystem vacant for the next tick, with exactly one lifecycle per
	// tick.
	s.Run()
	s.Run()
	s.Run()

	assert.Equal(t, 3, d.initCount)
	assert.Equal(t, 3, d.endCount)
	assert.False(t, s.IsScheduled(d))
}
