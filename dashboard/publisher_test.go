package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/rovermind/command"
	"github.com/itsneelabh/rovermind/core"
)

// gauge is a minimal Sendable used by publisher tests.
type gauge struct {
	value string
}

func (g *gauge) InitSendable(builder core.SendableBuilder) {
	builder.SetSmartDashboardType("Gauge")
	builder.AddStringProperty("value",
		func() string { return g.value },
		func(v string) { g.value = v })
}

func TestPublisherRegisterUpdateSnapshot(t *testing.T) {
	p := NewPublisher(nil)
	g := &gauge{value: "low"}
	p.Register("fuel", g)

	assert.Nil(t, p.Snapshot("fuel"))

	p.Update()
	snapshot := p.Snapshot("fuel")
	require.NotNil(t, snapshot)
	assert.Equal(t, "low", snapshot["value"])

	g.value = "high"
	assert.Equal(t, "low", p.Snapshot("fuel")["value"])
	p.Update()
	assert.Equal(t, "high", p.Snapshot("fuel")["value"])
}

func TestPublisherWriteThroughBuilder(t *testing.T) {
	p := NewPublisher(nil)
	g := &gauge{value: "low"}
	p.Register("fuel", g)

	require.True(t, p.Builder("fuel").SetString("value", "full"))
	assert.Equal(t, "full", g.value)
}

func TestPublisherUnregister(t *testing.T) {
	p := NewPublisher(nil)
	p.Register("fuel", &gauge{})
	p.Update()
	p.Unregister("fuel")

	assert.Nil(t, p.Builder("fuel"))
	assert.Nil(t, p.Snapshot("fuel"))
	assert.Empty(t, p.Entities())
}

func TestPublisherReplaceWarnsButWorks(t *testing.T) {
	p := NewPublisher(nil)
	p.Register("fuel", &gauge{value: "one"})
	p.Register("fuel", &gauge{value: "two"})

	require.Equal(t, []string{"fuel"}, p.Entities())
	p.Update()
	assert.Equal(t, "two", p.Snapshot("fuel")["value"])
}

func TestPublisherInstanceIDsAreUnique(t *testing.T) {
	a := NewPublisher(nil)
	b := NewPublisher(nil)
	assert.NotEmpty(t, a.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}

func TestPublisherMirrorsSchedulerState(t *testing.T) {
	command.ResetInstance()
	t.Cleanup(command.ResetInstance)
	s := command.GetInstance()

	c := command.Run(func() {}).WithName("Spin").Command()
	require.NoError(t, s.Schedule(c))

	p := NewPublisher(nil)
	p.Register("scheduler", s)
	p.Update()

	snapshot := p.Snapshot("scheduler")
	require.NotNil(t, snapshot)
	assert.Equal(t, []string{"Spin"}, snapshot["Names"])
	ids, ok := snapshot["Ids"].([]int64)
	require.True(t, ok)
	require.Len(t, ids, 1)

	// A dashboard writing the Cancel array cancels the command.
	require.True(t, p.Builder("scheduler").SetIntegerArray("Cancel", ids))
	assert.False(t, s.IsScheduled(c))
}

func TestCommandSendableThroughPublisher(t *testing.T) {
	command.ResetInstance()
	t.Cleanup(command.ResetInstance)
	s := command.GetInstance()

	c := command.Run(func() {}).WithName("Intake").Command()

	p := NewPublisher(nil)
	p.Register("intake-command", sendableCommand{c})
	p.Update()

	snapshot := p.Snapshot("intake-command")
	assert.Equal(t, "Intake", snapshot["name"])
	assert.Equal(t, false, snapshot["running"])

	require.True(t, p.Builder("intake-command").SetBoolean("running", true))
	assert.True(t, s.IsScheduled(c))

	require.True(t, p.Builder("intake-command").SetBoolean("running", false))
	assert.False(t, s.IsScheduled(c))
}

// sendableCommand adapts a command to core.Sendable for registration.
type sendableCommand struct {
	c command.Command
}

func (s sendableCommand) InitSendable(builder core.SendableBuilder) {
	command.InitCommandSendable(s.c, builder)
}
