// Package command implements a cooperative command scheduler for sequencing
// robot behaviors over fixed control-loop ticks.
//
// A Command is a stateful unit of work with a five-hook lifecycle
// (Initialize, Execute, IsFinished, End, Requirements). The Scheduler owns the
// set of running commands, enforces exclusive subsystem ownership, arbitrates
// preemption, reactivates default commands, and polls trigger event loops.
// Compositions (sequential, parallel, race, deadline, repeat, and friends)
// are themselves commands that drive their children's lifecycles directly
// rather than through the scheduler.
//
// Everything in this package runs on a single logical thread driven by the
// external tick source calling Scheduler.Run; command hooks must not block.
package command

import (
	"sync/atomic"

	"github.com/itsneelabh/rovermind/core"
)

// InterruptionBehavior is a command's arbitration policy when a newly
// scheduled command's requirements intersect its own.
type InterruptionBehavior int

const (
	// CancelSelf yields to the incoming command: this command is canceled
	// with End(true) and the incoming command is scheduled.
	CancelSelf InterruptionBehavior = iota

	// CancelIncoming refuses the incoming command: the schedule attempt is
	// rejected and this command keeps running.
	CancelIncoming
)

// String returns the dashboard representation of the behavior.
func (b InterruptionBehavior) String() string {
	switch b {
	case CancelIncoming:
		return "kCancelIncoming"
	default:
		return "kCancelSelf"
	}
}

// Command is the unit of scheduled work. Implementations embed CommandBase,
// which supplies identity, naming, requirement tracking, the composition
// marker, and default policy queries; concrete commands override the
// lifecycle hooks they need.
//
// Lifecycle contract, per scheduling:
//   - Initialize is called exactly once, when the command enters the
//     scheduled set.
//   - Execute is called every tick the command is scheduled, followed by
//     IsFinished.
//   - End is called exactly once when the command leaves the scheduled set;
//     interrupted is false iff removal was caused by IsFinished returning
//     true in the normal polling path. By the time End runs, the command is
//     no longer reported as scheduled.
//
// RunsWhenDisabled and InterruptionBehavior must be stable for the duration
// of a single scheduling.
type Command interface {
	// Initialize is called once when the command is scheduled.
	Initialize()

	// Execute is called repeatedly while the command is scheduled. It must
	// not block.
	Execute()

	// IsFinished is polled after Execute; returning true removes the command
	// from the scheduler with End(false).
	IsFinished() bool

	// End is called once when the command ends or is interrupted.
	End(interrupted bool)

	// Requirements returns the subsystems this command needs exclusively.
	Requirements() []Subsystem

	// HasRequirement reports whether the given subsystem is required.
	HasRequirement(subsystem Subsystem) bool

	// Name returns the display name used in logs, epochs, and dashboards.
	Name() string

	// SetName updates the display name.
	SetName(name string)

	// ID returns the stable per-process numeric identity used by telemetry
	// sinks.
	ID() int64

	// RunsWhenDisabled reports whether the command keeps running while the
	// robot is disabled.
	RunsWhenDisabled() bool

	// InterruptionBehavior returns the arbitration policy for this command.
	InterruptionBehavior() InterruptionBehavior

	// IsComposed reports whether the command has been incorporated into a
	// composition. Composed commands may not be scheduled directly or added
	// to another composition.
	IsComposed() bool

	// markComposed and compositionSite confine implementations to this
	// package's CommandBase, which every command embeds.
	markComposed(site string)
	compositionSite() string
}

// commandID is the process-wide identity sequence. IDs are never reused, so
// a dashboard's Cancel array cannot race a recycled identity.
var commandID atomic.Int64

func nextCommandID() int64 {
	return commandID.Add(1)
}

// CommandBase carries the state shared by every command: display name,
// numeric identity, the required-subsystem set, and the composition marker.
// Embed it by value and override lifecycle hooks as needed.
type CommandBase struct {
	name         string
	id           int64
	requirements []Subsystem
	requiredSet  map[Subsystem]struct{}
	composedSite string
}

// NewCommandBase creates the shared base with the given display name.
func NewCommandBase(name string) CommandBase {
	return CommandBase{
		name: name,
		id:   nextCommandID(),
	}
}

// Initialize is a no-op by default.
func (b *CommandBase) Initialize() {}

// Execute is a no-op by default.
func (b *CommandBase) Execute() {}

// IsFinished returns false by default; commands that never finish on their
// own rely on interruption.
func (b *CommandBase) IsFinished() bool { return false }

// End is a no-op by default.
func (b *CommandBase) End(interrupted bool) {}

// RunsWhenDisabled returns false by default.
func (b *CommandBase) RunsWhenDisabled() bool { return false }

// InterruptionBehavior returns CancelSelf by default.
func (b *CommandBase) InterruptionBehavior() InterruptionBehavior { return CancelSelf }

// AddRequirements declares the subsystems this command needs exclusively.
// Duplicates are ignored. Requirements are fixed once the command is first
// scheduled; declare them during construction.
func (b *CommandBase) AddRequirements(subsystems ...Subsystem) {
	if b.requiredSet == nil {
		b.requiredSet = make(map[Subsystem]struct{}, len(subsystems))
	}
	for _, s := range subsystems {
		if s == nil {
			continue
		}
		if _, ok := b.requiredSet[s]; ok {
			continue
		}
		b.requiredSet[s] = struct{}{}
		b.requirements = append(b.requirements, s)
	}
}

// Requirements returns the declared subsystems in declaration order.
func (b *CommandBase) Requirements() []Subsystem {
	out := make([]Subsystem, len(b.requirements))
	copy(out, b.requirements)
	return out
}

// HasRequirement reports whether the given subsystem is required.
func (b *CommandBase) HasRequirement(subsystem Subsystem) bool {
	_, ok := b.requiredSet[subsystem]
	return ok
}

// Name returns the display name.
func (b *CommandBase) Name() string {
	if b.name == "" {
		return "Command"
	}
	return b.name
}

// SetName updates the display name.
func (b *CommandBase) SetName(name string) { b.name = name }

// ID returns the stable numeric identity.
func (b *CommandBase) ID() int64 {
	if b.id == 0 {
		b.id = nextCommandID()
	}
	return b.id
}

// IsComposed reports whether the command was placed into a composition.
func (b *CommandBase) IsComposed() bool { return b.composedSite != "" }

func (b *CommandBase) markComposed(site string) { b.composedSite = site }

func (b *CommandBase) compositionSite() string { return b.composedSite }

// InitCommandSendable publishes a command's state through a telemetry sink
// builder. The running property is writable: setting it true schedules the
// command on the singleton scheduler, false cancels it.
func InitCommandSendable(c Command, builder core.SendableBuilder) {
	builder.SetSmartDashboardType("Command")
	builder.AddStringProperty("name", c.Name, nil)
	builder.AddBooleanProperty("running",
		func() bool { return GetInstance().IsScheduled(c) },
		func(value bool) {
			scheduled := GetInstance().IsScheduled(c)
			if value && !scheduled {
				_ = GetInstance().Schedule(c)
			} else if !value && scheduled {
				GetInstance().Cancel(c)
			}
		})
	builder.AddBooleanProperty(".isParented", c.IsComposed, nil)
	builder.AddStringProperty("interruptBehavior",
		func() string { return c.InterruptionBehavior().String() }, nil)
	builder.AddBooleanProperty("runsWhenDisabled", c.RunsWhenDisabled, nil)
}
