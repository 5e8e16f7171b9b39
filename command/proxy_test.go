package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxySchedulesInnerThroughScheduler(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)
	s := GetInstance()

	inner := newMockCommand("inner")
	p := NewProxyCommand(inner)

	require.NoError(t, s.Schedule(p))
	// The inner command is a first-class member of the scheduled set, not a
	// composition child.
	assert.True(t, s.IsScheduled(inner))
	assert.False(t, inner.IsComposed())

	s.Run()
	assert.Equal(t, 1, inner.execCount)
	assert.True(t, s.IsScheduled(p))

	inner.finished = true
	s.Run()
	assert.Equal(t, 1, inner.endCount)
	assert.False(t, inner.lastInterrupted)
	assert.True(t, s.IsScheduled(p))

	// The proxy notices the inner command is gone on the next poll.
	s.Run()
	assert.False(t, s.IsScheduled(p))
}

func TestProxyInterruptCancelsInner(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)
	s := GetInstance()

	inner := newMockCommand("inner")
	p := NewProxyCommand(inner)

	require.NoError(t, s.Schedule(p))
	s.Run()
	s.Cancel(p)

	assert.False(t, s.IsScheduled(inner))
	assert.Equal(t, 1, inner.endCount)
	assert.True(t, inner.lastInterrupted)
}

func TestProxyNormalFinishLeavesInnerAlone(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)
	s := GetInstance()

	// The inner command finishes on its own; the proxy then finishes
	// normally and does not cancel it again, so it is ended exactly once.
	inner := newMockCommand("inner")
	endsBeforeProxy := 0
	inner.onEnd = func(bool) { endsBeforeProxy = inner.endCount }

	p := NewProxyCommand(inner)
	require.NoError(t, s.Schedule(p))
	inner.finished = true
	s.Run()
	s.Run()

	assert.False(t, s.IsScheduled(p))
	assert.Equal(t, 1, inner.endCount)
	assert.Equal(t, 1, endsBeforeProxy)
}

func TestProxySupplierVariant(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)
	s := GetInstance()

	supplied := 0
	p := NewProxyCommandFromSupplier(func() Command {
		supplied++
		return newMockCommand("supplied")
	})

	require.NoError(t, s.Schedule(p))
	assert.Equal(t, 1, supplied)
	s.Cancel(p)

	require.NoError(t, s.Schedule(p))
	assert.Equal(t, 2, supplied)
}

func TestScheduleCommandForksAndFinishes(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)
	s := GetInstance()

	forked := newMockCommand("forked")
	sc := NewScheduleCommand(forked)

	require.NoError(t, s.Schedule(sc))
	assert.True(t, s.IsScheduled(forked))

	s.Run()
	assert.False(t, s.IsScheduled(sc))
	assert.True(t, s.IsScheduled(forked))
	assert.True(t, sc.RunsWhenDisabled())
}
