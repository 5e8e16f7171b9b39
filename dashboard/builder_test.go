package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableBuilderSnapshotSamplesGetters(t *testing.T) {
	b := NewTableBuilder()
	name := "arm"
	running := false
	ids := []int64{1, 2}

	b.SetSmartDashboardType("Command")
	b.AddStringProperty("name", func() string { return name }, nil)
	b.AddBooleanProperty("running", func() bool { return running }, nil)
	b.AddIntegerArrayProperty("Ids", func() []int64 { return ids }, nil)
	b.AddStringArrayProperty("Names", func() []string { return []string{name} }, nil)

	snapshot := b.Snapshot()
	assert.Equal(t, "arm", snapshot["name"])
	assert.Equal(t, false, snapshot["running"])
	assert.Equal(t, []int64{1, 2}, snapshot["Ids"])

	// Snapshots sample live state, not construction-time state.
	name = "claw"
	running = true
	snapshot = b.Snapshot()
	assert.Equal(t, "claw", snapshot["name"])
	assert.Equal(t, true, snapshot["running"])
	assert.Equal(t, "Command", b.Type())
}

func TestTableBuilderWritableProperties(t *testing.T) {
	b := NewTableBuilder()
	var gotBool bool
	var gotInts []int64
	b.AddBooleanProperty("running", func() bool { return gotBool }, func(v bool) { gotBool = v })
	b.AddIntegerArrayProperty("Cancel", func() []int64 { return nil }, func(v []int64) { gotInts = v })
	b.AddStringProperty("name", func() string { return "" }, nil)

	assert.True(t, b.SetBoolean("running", true))
	assert.True(t, gotBool)

	assert.True(t, b.SetIntegerArray("Cancel", []int64{7}))
	assert.Equal(t, []int64{7}, gotInts)

	// Read-only, unknown, and type-mismatched writes are refused.
	assert.False(t, b.SetString("name", "x"))
	assert.False(t, b.SetBoolean("missing", true))
	assert.False(t, b.SetBoolean("Cancel", true))
}

func TestTableBuilderPropertyOrder(t *testing.T) {
	b := NewTableBuilder()
	b.AddStringProperty("first", func() string { return "" }, nil)
	b.AddBooleanProperty("second", func() bool { return false }, nil)
	b.AddStringProperty("first", func() string { return "replaced" }, nil)

	require.Equal(t, []string{"first", "second"}, b.PropertyNames())
	assert.Equal(t, "replaced", b.Snapshot()["first"])
}
