package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/rovermind/core"
)

func TestParallelFinishesWhenAllChildrenFinish(t *testing.T) {
	s := newTestScheduler()
	fast := newMockCommand("fast")
	slow := newMockCommand("slow")
	g, err := NewParallelCommandGroup(fast, slow)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	fast.finished = true
	s.Run()

	// The fast child ended the moment it reported finished; the group keeps
	// running the slow one.
	assert.Equal(t, 1, fast.endCount)
	assert.False(t, fast.lastInterrupted)
	assert.True(t, s.IsScheduled(g))

	slow.finished = true
	s.Run()

	assert.Equal(t, 1, slow.endCount)
	assert.False(t, slow.lastInterrupted)
	assert.False(t, s.IsScheduled(g))
	assert.Equal(t, 1, fast.endCount)
}

func TestParallelInterruptReachesOnlyRunningChildren(t *testing.T) {
	s := newTestScheduler()
	done := newMockCommand("done")
	running := newMockCommand("running")
	g, err := NewParallelCommandGroup(done, running)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	done.finished = true
	s.Run()
	s.Cancel(g)

	assert.Equal(t, 1, done.endCount)
	assert.False(t, done.lastInterrupted)
	assert.Equal(t, 1, running.endCount)
	assert.True(t, running.lastInterrupted)
}

func TestParallelRejectsSharedRequirements(t *testing.T) {
	a := newTestSubsystem("A")
	_, err := NewParallelCommandGroup(newMockCommand("m1", a), newMockCommand("m2", a))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSharedRequirements)
}

func TestRaceFinishesOnFirstChild(t *testing.T) {
	s := newTestScheduler()
	instant := newMockCommand("instant")
	instant.finished = true
	forever := newMockCommand("forever")
	g, err := NewParallelRaceGroup(instant, forever)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()

	// One tick: the winner ends normally, the loser is interrupted, each
	// exactly once.
	assert.False(t, s.IsScheduled(g))
	assert.Equal(t, 1, instant.endCount)
	assert.False(t, instant.lastInterrupted)
	assert.Equal(t, 1, forever.endCount)
	assert.True(t, forever.lastInterrupted)
	assert.Equal(t, 1, instant.execCount)
	assert.Equal(t, 1, forever.execCount)
}

func TestRaceInterruptEndsAllChildrenOnce(t *testing.T) {
	s := newTestScheduler()
	m1 := newMockCommand("m1")
	m2 := newMockCommand("m2")
	g, err := NewParallelRaceGroup(m1, m2)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()
	s.Cancel(g)

	assert.Equal(t, 1, m1.endCount)
	assert.Equal(t, 1, m2.endCount)
	assert.True(t, m1.lastInterrupted)
	assert.True(t, m2.lastInterrupted)
}

func TestRaceBothChildrenFinishingSameTick(t *testing.T) {
	s := newTestScheduler()
	m1 := newMockCommand("m1")
	m1.finished = true
	m2 := newMockCommand("m2")
	m2.finished = true
	g, err := NewParallelRaceGroup(m1, m2)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()

	assert.Equal(t, 1, m1.endCount)
	assert.Equal(t, 1, m2.endCount)
	assert.False(t, m1.lastInterrupted)
	assert.False(t, m2.lastInterrupted)
	assert.False(t, s.IsScheduled(g))
}

func TestDeadlineCutsShortOtherChildren(t *testing.T) {
	s := newTestScheduler()
	deadline := newMockCommand("deadline")
	worker := newMockCommand("worker")
	g, err := NewParallelDeadlineGroup(deadline, worker)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()
	assert.True(t, s.IsScheduled(g))

	deadline.finished = true
	s.Run()

	assert.False(t, s.IsScheduled(g))
	assert.Equal(t, 1, deadline.endCount)
	assert.False(t, deadline.lastInterrupted)
	assert.Equal(t, 1, worker.endCount)
	assert.True(t, worker.lastInterrupted)
}

func TestDeadlineGroupOutlivesEarlyFinishingWorkers(t *testing.T) {
	s := newTestScheduler()
	deadline := newMockCommand("deadline")
	worker := newMockCommand("worker")
	worker.finished = true
	g, err := NewParallelDeadlineGroup(deadline, worker)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Run()

	assert.True(t, s.IsScheduled(g))
	assert.Equal(t, 1, worker.endCount)
	assert.False(t, worker.lastInterrupted)

	deadline.finished = true
	s.Run()
	assert.False(t, s.IsScheduled(g))
	assert.Equal(t, 1, worker.endCount)
}

func TestDeadlineInterruptEndsRunningChildren(t *testing.T) {
	s := newTestScheduler()
	deadline := newMockCommand("deadline")
	worker := newMockCommand("worker")
	g, err := NewParallelDeadlineGroup(deadline, worker)
	require.NoError(t, err)

	require.NoError(t, s.Schedule(g))
	s.Cancel(g)

	assert.Equal(t, 1, deadline.endCount)
	assert.True(t, deadline.lastInterrupted)
	assert.Equal(t, 1, worker.endCount)
	assert.True(t, worker.lastInterrupted)
}

func TestSetDeadlineSwapsWithinGroup(t *testing.T) {
	first := newMockCommand("first")
	second := newMockCommand("second")
	g, err := NewParallelDeadlineGroup(first, second)
	require.NoError(t, err)

	require.NoError(t, g.SetDeadline(second))

	s := newTestScheduler()
	require.NoError(t, s.Schedule(g))
	second.finished = true
	s.Run()

	assert.False(t, s.IsScheduled(g))
	assert.Equal(t, 1, first.endCount)
	assert.True(t, first.lastInterrupted)
}

func TestParallelAddWhileRunningFails(t *testing.T) {
	s := newTestScheduler()
	g, err := NewParallelCommandGroup(newMockCommand("m1"))
	require.NoError(t, err)
	require.NoError(t, s.Schedule(g))

	err = g.AddCommands(newMockCommand("m2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCompositionRunning)
}
