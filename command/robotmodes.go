package command

import "github.com/itsneelabh/rovermind/core"

// Triggers derived from the robot mode signal, for binding mode-transition
// behavior (e.g. zeroing mechanisms on enable).

// DisabledTrigger is true while the robot is disabled.
func DisabledTrigger() *Trigger {
	return NewTrigger(func() bool {
		return core.GetRobotState().IsDisabled()
	})
}

// EnabledTrigger is true while the robot is enabled.
func EnabledTrigger() *Trigger {
	return NewTrigger(func() bool {
		return !core.GetRobotState().IsDisabled()
	})
}
