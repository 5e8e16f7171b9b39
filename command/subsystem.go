package command

// Subsystem is an identity representing an exclusive hardware resource. At
// most one scheduled command may require a given subsystem at any instant;
// the scheduler enforces this and arbitrates conflicts.
//
// Periodic is called by the scheduler once per tick, before any commands
// run. SimulationPeriodic is additionally called when the scheduler is in
// simulation mode.
type Subsystem interface {
	Name() string
	Periodic()
	SimulationPeriodic()
}

// SubsystemBase provides a named default implementation of Subsystem with
// no-op periodic hooks, plus the command conveniences: factories that build
// commands requiring this subsystem, default-command management, and
// current-command lookup, all against the singleton scheduler.
//
// Embed it and call Attach with the embedding value so the conveniences act
// on the registered identity rather than the embedded base:
//
//	type Drivetrain struct {
//	    command.SubsystemBase
//	}
//
//	d := &Drivetrain{SubsystemBase: command.NewSubsystemBase("Drivetrain")}
//	d.Attach(d)
//	stop := d.RunOnce(d.Stop)
//
// A bare *SubsystemBase needs no Attach; it is its own identity.
type SubsystemBase struct {
	name string
	self Subsystem
}

// NewSubsystemBase creates a subsystem base with the given name. The
// subsystem is not registered with any scheduler; call Register, or
// RegisterSubsystem on the scheduler that should drive its periodic hook.
func NewSubsystemBase(name string) SubsystemBase {
	return SubsystemBase{name: name}
}

// NewSubsystem creates a standalone subsystem and registers it with the
// singleton scheduler, for resources that need no custom periodic logic.
func NewSubsystem(name string) *SubsystemBase {
	s := &SubsystemBase{name: name}
	GetInstance().RegisterSubsystem(s)
	return s
}

// Name returns the subsystem's display name.
func (s *SubsystemBase) Name() string {
	if s.name == "" {
		return "Subsystem"
	}
	return s.name
}

// SetName updates the subsystem's display name.
func (s *SubsystemBase) SetName(name string) { s.name = name }

// Periodic is a no-op by default.
func (s *SubsystemBase) Periodic() {}

// SimulationPeriodic is a no-op by default.
func (s *SubsystemBase) SimulationPeriodic() {}

// Attach binds the embedding subsystem so the command helpers require, and
// the lookups resolve, the embedding value. Call it once after
// construction; it is a no-op for bare SubsystemBase values.
func (s *SubsystemBase) Attach(self Subsystem) {
	s.self = self
}

// subsystem resolves the identity the helpers act on: the attached
// embedding value, or the base itself.
func (s *SubsystemBase) subsystem() Subsystem {
	if s.self != nil {
		return s.self
	}
	return s
}

// Register registers this subsystem with the singleton scheduler.
func (s *SubsystemBase) Register() {
	GetInstance().RegisterSubsystem(s.subsystem())
}

// RunOnce returns a command that calls the action once and finishes,
// requiring this subsystem.
func (s *SubsystemBase) RunOnce(action func()) *CommandPtr {
	return RunOnce(action, s.subsystem())
}

// Run returns a command that calls the action every tick until
// interrupted, requiring this subsystem.
func (s *SubsystemBase) Run(action func()) *CommandPtr {
	return Run(action, s.subsystem())
}

// StartEnd returns a command that calls start when scheduled and end when
// interrupted, requiring this subsystem.
func (s *SubsystemBase) StartEnd(start, end func()) *CommandPtr {
	return StartEnd(start, end, s.subsystem())
}

// RunEnd returns a command that calls run every tick and end when
// interrupted, requiring this subsystem.
func (s *SubsystemBase) RunEnd(run, end func()) *CommandPtr {
	return RunEnd(run, end, s.subsystem())
}

// SetDefaultCommand sets this subsystem's default command on the singleton
// scheduler; see Scheduler.SetDefaultCommand for the validation rules.
func (s *SubsystemBase) SetDefaultCommand(defaultCommand Command) error {
	return GetInstance().SetDefaultCommand(s.subsystem(), defaultCommand)
}

// GetDefaultCommand returns this subsystem's default command, or nil.
func (s *SubsystemBase) GetDefaultCommand() Command {
	if sched := instanceIfExists(); sched != nil {
		return sched.GetDefaultCommand(s.subsystem())
	}
	return nil
}

// RemoveDefaultCommand clears this subsystem's default command slot.
func (s *SubsystemBase) RemoveDefaultCommand() {
	if sched := instanceIfExists(); sched != nil {
		sched.RemoveDefaultCommand(s.subsystem())
	}
}

// GetCurrentCommand returns the command currently requiring this
// subsystem, or nil when it is idle.
func (s *SubsystemBase) GetCurrentCommand() Command {
	if sched := instanceIfExists(); sched != nil {
		return sched.Requiring(s.subsystem())
	}
	return nil
}
