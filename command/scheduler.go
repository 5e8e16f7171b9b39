package command

import (
	"fmt"
	"sync"
	"time"

	"github.com/itsneelabh/rovermind/core"
)

// Scheduler coordinates the set of running commands. It tracks which command
// owns which subsystem, arbitrates preemption when requirements conflict,
// reactivates default commands on idle subsystems, and polls the active
// button event loop, all from a single Run call per tick.
//
// Every entry point except Run is safe to invoke from inside a command's
// lifecycle hooks; Run itself is not reentrant.
type Scheduler struct {
	logger core.Logger

	// The currently-scheduled commands, in insertion order. The map carries
	// membership, the slice the order; both are updated together.
	scheduled map[Command]struct{}
	order     []Command

	// A map from required subsystems to their requiring commands. Also used
	// as a set of the currently-required subsystems.
	requirements map[Subsystem]Command

	// A map from registered subsystems to their default commands (nil when
	// unset). Also used as a list of currently-registered subsystems; the
	// slice preserves registration order for the periodic pass.
	subsystems     map[Subsystem]Command
	subsystemOrder []Subsystem

	defaultButtonLoop *EventLoop
	activeButtonLoop  *EventLoop

	disabled  bool
	inRunLoop bool

	// Lists of user-supplied actions to be executed on scheduling events for
	// every command.
	initActions      []func(Command)
	executeActions   []func(Command)
	interruptActions []func(Command, Command)
	finishActions    []func(Command)

	// Commands whose lifetime was transferred to the scheduler via a
	// CommandPtr. Entries are released exactly when the command ends.
	ownedCommands map[Command]*CommandPtr

	watchdog   *Watchdog
	simulation bool

	// robotState overrides the process-wide robot mode signal when non-nil;
	// tests install a fake here.
	robotState core.RobotState
}

var (
	instanceMu sync.Mutex
	instance   *Scheduler
)

// GetInstance returns the process-wide scheduler, constructing it on first
// use from environment-derived configuration. Robot programs normally use
// this instance; tests should prefer isolated schedulers from NewScheduler.
func GetInstance() *Scheduler {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = newDefaultScheduler()
	}
	return instance
}

// ResetInstance discards the process-wide scheduler so the next GetInstance
// call builds a fresh one. Intended for test teardown.
func ResetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}

// instanceIfExists returns the singleton without lazily constructing it.
func instanceIfExists() *Scheduler {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

func newDefaultScheduler() *Scheduler {
	cfg, err := core.NewConfig()
	if err != nil {
		cfg = core.DefaultConfig()
	}
	return NewScheduler(cfg)
}

// NewScheduler creates an isolated scheduler from the given configuration.
// A nil config uses defaults. Isolated schedulers are first-class: every
// entry point behaves identically to the singleton's.
func NewScheduler(cfg *core.Config) *Scheduler {
	if cfg == nil {
		cfg = core.DefaultConfig()
	}

	var logger core.Logger = &core.NoOpLogger{}
	if cfg.Logger() != nil {
		logger = cfg.Logger()
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("framework/command")
	}

	defaultLoop := NewEventLoop()
	s := &Scheduler{
		logger:            logger,
		scheduled:         make(map[Command]struct{}),
		requirements:      make(map[Subsystem]Command),
		subsystems:        make(map[Subsystem]Command),
		defaultButtonLoop: defaultLoop,
		activeButtonLoop:  defaultLoop,
		ownedCommands:     make(map[Command]*CommandPtr),
		simulation:        cfg.Scheduler.Simulation,
		watchdog:          NewWatchdog(cfg.Scheduler.Period, logger),
	}
	if !cfg.Scheduler.WatchdogEnabled {
		s.watchdog.SetEnabled(false)
	}
	return s
}

// SetPeriod sets the nominal tick period the watchdog measures Run against.
func (s *Scheduler) SetPeriod(period time.Duration) {
	s.watchdog.SetTimeout(period)
}

// SetRobotState overrides the robot mode signal for this scheduler. Passing
// nil reverts to the process-wide signal installed via core.SetRobotState.
func (s *Scheduler) SetRobotState(state core.RobotState) {
	s.robotState = state
}

func (s *Scheduler) robotDisabled() bool {
	if s.robotState != nil {
		return s.robotState.IsDisabled()
	}
	return core.GetRobotState().IsDisabled()
}

// GetActiveButtonLoop returns the event loop polled each tick.
func (s *Scheduler) GetActiveButtonLoop() *EventLoop {
	return s.activeButtonLoop
}

// SetActiveButtonLoop replaces the event loop polled each tick. The swap
// takes effect on the next tick; the loop pointer is cached at the start of
// each poll phase.
func (s *Scheduler) SetActiveButtonLoop(loop *EventLoop) {
	if loop == nil {
		loop = s.defaultButtonLoop
	}
	s.activeButtonLoop = loop
}

// GetDefaultButtonLoop returns the loop triggers bind to unless told
// otherwise.
func (s *Scheduler) GetDefaultButtonLoop() *EventLoop {
	return s.defaultButtonLoop
}

// InRunLoop reports whether a Run tick is currently in progress. Observable
// from command hooks; Run itself must not be called reentrantly.
func (s *Scheduler) InRunLoop() bool {
	return s.inRunLoop
}

// Schedule schedules commands for execution as long as they are not
// composed, not already scheduled, and — unless they run when disabled —
// the robot is enabled. Requirement conflicts are arbitrated: if every
// current owner of a contested subsystem is CancelSelf, the owners are
// interrupted and the new command is scheduled; if any owner is
// CancelIncoming, the schedule attempt is refused with no state change.
//
// Scheduling a composed command is an illegal use and returns an error
// naming the site of first composition; all other refusals are silent.
func (s *Scheduler) Schedule(commands ...Command) error {
	for _, c := range commands {
		if err := s.schedule(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) schedule(c Command) error {
	if c == nil {
		s.logger.Warn("Tried to schedule a nil command", map[string]interface{}{
			"operation": "schedule",
		})
		return nil
	}
	if err := requireUngrouped("scheduler.Schedule", c); err != nil {
		return err
	}
	if s.isScheduled(c) {
		return nil
	}
	if s.disabled {
		s.logger.Debug("Schedule ignored: scheduler disabled", map[string]interface{}{
			"operation": "schedule",
			"command":   c.Name(),
		})
		return nil
	}
	if s.robotDisabled() && !c.RunsWhenDisabled() {
		s.logger.Debug("Schedule ignored: robot disabled", map[string]interface{}{
			"operation": "schedule",
			"command":   c.Name(),
		})
		return nil
	}

	requirements := c.Requirements()

	// Arbitration reads the requirement map before any cancellation; either
	// every conflict yields or the whole attempt is refused.
	var conflicts []Command
	allInterruptible := true
	for _, r := range requirements {
		owner, ok := s.requirements[r]
		if !ok {
			continue
		}
		if owner.InterruptionBehavior() == CancelIncoming {
			allInterruptible = false
		}
		alreadySeen := false
		for _, d := range conflicts {
			if d == owner {
				alreadySeen = true
				break
			}
		}
		if !alreadySeen {
			conflicts = append(conflicts, owner)
		}
	}

	if !allInterruptible {
		s.logger.Debug("Schedule refused: conflicting command is not interruptible", map[string]interface{}{
			"operation": "schedule",
			"command":   c.Name(),
		})
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("scheduler.commands.refused", "command", c.Name())
		}
		return nil
	}

	for _, d := range conflicts {
		s.cancel(d, c)
	}

	s.scheduled[c] = struct{}{}
	s.order = append(s.order, c)
	for _, r := range requirements {
		s.requirements[r] = c
	}

	c.Initialize()
	for _, action := range s.initActions {
		s.invokeHook("on_initialize", func() { action(c) })
	}
	s.watchdog.AddEpoch(c.Name() + ".Initialize()")

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("scheduler.commands.scheduled", "command", c.Name())
	}
	return nil
}

// ScheduleOwned transfers ownership of the handle's command to the scheduler
// and schedules it. The entry is released when the command ends; if the
// schedule attempt is refused the transfer is rolled back.
func (s *Scheduler) ScheduleOwned(ptr *CommandPtr) error {
	c := ptr.take("scheduler.ScheduleOwned")
	if c == nil {
		return core.NewFrameworkError("scheduler.ScheduleOwned", "command", core.ErrMovedCommandPtr)
	}
	s.ownedCommands[c] = ptr
	err := s.schedule(c)
	if err != nil || !s.isScheduled(c) {
		// Refused, or already ended (self-canceling Initialize releases the
		// entry on the cancel path).
		delete(s.ownedCommands, c)
	}
	return err
}

// Run advances the scheduler by one tick:
//
//  1. Every registered subsystem's Periodic (and SimulationPeriodic in
//     simulation mode) runs, in registration order.
//  2. The active button loop is polled; trigger bindings may schedule and
//     cancel commands immediately.
//  3. Each scheduled command's Execute runs, then IsFinished; finished
//     commands are removed with End(false). The pass iterates a snapshot,
//     so commands scheduled during the pass first run next tick and
//     commands canceled during the pass are skipped.
//  4. Any registered subsystem with no requiring command has its default
//     command scheduled.
//
// Run is a no-op while the scheduler is disabled. The watchdog records an
// epoch around each step and reports when the tick exceeds the period.
func (s *Scheduler) Run() {
	if s.disabled {
		return
	}

	s.inRunLoop = true
	defer func() { s.inRunLoop = false }()

	s.watchdog.Reset()

	// Run the periodic method of all registered subsystems.
	for _, subsystem := range s.subsystemOrder {
		subsystem.Periodic()
		if s.simulation {
			subsystem.SimulationPeriodic()
		}
		s.watchdog.AddEpoch(subsystem.Name() + ".Periodic()")
	}

	// Cache the active loop so bindings that retarget it do not take effect
	// mid-tick.
	loopCache := s.activeButtonLoop
	loopCache.Poll()
	s.watchdog.AddEpoch("buttons.Run()")

	robotDisabled := s.robotDisabled()

	// Iterate a snapshot to avoid invalidation when commands schedule or
	// cancel siblings from their hooks.
	snapshot := make([]Command, len(s.order))
	copy(snapshot, s.order)

	for _, c := range snapshot {
		if !s.isScheduled(c) {
			continue // removed by a prior iteration or a hook
		}

		if robotDisabled && !c.RunsWhenDisabled() {
			s.cancel(c, nil)
			continue
		}

		c.Execute()
		for _, action := range s.executeActions {
			s.invokeHook("on_execute", func() { action(c) })
		}
		s.watchdog.AddEpoch(c.Name() + ".Execute()")

		if !s.isScheduled(c) {
			// Canceled from its own Execute or an execute hook; End(true)
			// already ran.
			continue
		}
		if c.IsFinished() {
			s.remove(c)
			c.End(false)
			for _, action := range s.finishActions {
				s.invokeHook("on_finish", func() { action(c) })
			}
			s.watchdog.AddEpoch(c.Name() + ".End(false)")
			delete(s.ownedCommands, c)

			if registry := core.GetGlobalMetricsRegistry(); registry != nil {
				registry.Counter("scheduler.commands.finished", "command", c.Name())
			}
		}
	}

	// Schedule default commands for registered subsystems with no owner.
	for _, subsystem := range s.subsystemOrder {
		if _, required := s.requirements[subsystem]; required {
			continue
		}
		if defaultCommand := s.subsystems[subsystem]; defaultCommand != nil {
			if err := s.schedule(defaultCommand); err != nil {
				s.logger.Error("Failed to schedule default command", map[string]interface{}{
					"operation": "run",
					"subsystem": subsystem.Name(),
					"command":   defaultCommand.Name(),
					"error":     err.Error(),
				})
			}
		}
	}

	s.watchdog.Finish()

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Gauge("scheduler.commands.active", float64(len(s.order)))
	}
}

// Cancel interrupts scheduled commands: each is removed from the scheduled
// set, has End(true) invoked, and fires the on-interrupt hooks with no
// interrupting command. Canceling an unscheduled command is a no-op.
//
// Cancel may be called from inside any command hook; removal happens before
// End so self-cancellation never re-enters End.
func (s *Scheduler) Cancel(commands ...Command) {
	for _, c := range commands {
		s.cancel(c, nil)
	}
}

func (s *Scheduler) cancel(c Command, interruptor Command) {
	if c == nil || !s.isScheduled(c) {
		return
	}

	s.remove(c)
	c.End(true)
	for _, action := range s.interruptActions {
		s.invokeHook("on_interrupt", func() { action(c, interruptor) })
	}
	s.watchdog.AddEpoch(c.Name() + ".End(true)")
	delete(s.ownedCommands, c)

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("scheduler.commands.interrupted", "command", c.Name())
	}
}

// CancelAll cancels every scheduled command, in insertion order.
func (s *Scheduler) CancelAll() {
	snapshot := make([]Command, len(s.order))
	copy(snapshot, s.order)
	for _, c := range snapshot {
		s.cancel(c, nil)
	}
}

// remove deletes c from the scheduled set and releases its requirements.
// Callers invoke End afterwards, preserving the removal-before-End order the
// reentrancy contract depends on.
func (s *Scheduler) remove(c Command) {
	delete(s.scheduled, c)
	for i, o := range s.order {
		if o == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for r, owner := range s.requirements {
		if owner == c {
			delete(s.requirements, r)
		}
	}
}

// IsScheduled reports whether every given command is currently scheduled.
func (s *Scheduler) IsScheduled(commands ...Command) bool {
	for _, c := range commands {
		if !s.isScheduled(c) {
			return false
		}
	}
	return true
}

func (s *Scheduler) isScheduled(c Command) bool {
	_, ok := s.scheduled[c]
	return ok
}

// Requiring returns the command currently requiring the subsystem, or nil.
func (s *Scheduler) Requiring(subsystem Subsystem) Command {
	return s.requirements[subsystem]
}

// RegisterSubsystem registers subsystems so their Periodic hooks run each
// tick and their default commands are reactivated. Registering an
// already-registered subsystem is warned and ignored.
func (s *Scheduler) RegisterSubsystem(subsystems ...Subsystem) {
	for _, subsystem := range subsystems {
		if subsystem == nil {
			continue
		}
		if _, ok := s.subsystems[subsystem]; ok {
			s.logger.Warn("Tried to register an already-registered subsystem", map[string]interface{}{
				"operation": "register_subsystem",
				"subsystem": subsystem.Name(),
			})
			continue
		}
		s.subsystems[subsystem] = nil
		s.subsystemOrder = append(s.subsystemOrder, subsystem)
	}
}

// UnregisterSubsystem removes subsystems from the registry. Their default
// commands are dropped with them; currently-running commands are untouched.
func (s *Scheduler) UnregisterSubsystem(subsystems ...Subsystem) {
	for _, subsystem := range subsystems {
		if _, ok := s.subsystems[subsystem]; !ok {
			continue
		}
		delete(s.subsystems, subsystem)
		for i, o := range s.subsystemOrder {
			if o == subsystem {
				s.subsystemOrder = append(s.subsystemOrder[:i], s.subsystemOrder[i+1:]...)
				break
			}
		}
	}
}

// UnregisterAllSubsystems clears the subsystem registry.
func (s *Scheduler) UnregisterAllSubsystems() {
	s.subsystems = make(map[Subsystem]Command)
	s.subsystemOrder = nil
}

// SetDefaultCommand sets the command automatically scheduled on the
// subsystem whenever no other command requires it. The command must require
// the subsystem and must not be composed; default commands should never
// finish on their own. A CancelIncoming default command is legal but warned,
// as it makes the subsystem un-preemptible.
func (s *Scheduler) SetDefaultCommand(subsystem Subsystem, defaultCommand Command) error {
	if subsystem == nil || defaultCommand == nil {
		return core.NewFrameworkError("scheduler.SetDefaultCommand", "subsystem",
			fmt.Errorf("%w: subsystem and command must be non-nil", core.ErrInvalidConfiguration))
	}
	if err := requireUngrouped("scheduler.SetDefaultCommand", defaultCommand); err != nil {
		return err
	}
	if !defaultCommand.HasRequirement(subsystem) {
		return &core.FrameworkError{
			Op:   "scheduler.SetDefaultCommand",
			Kind: "subsystem",
			ID:   subsystem.Name(),
			Err:  core.ErrDefaultCommandRequirement,
		}
	}
	if defaultCommand.InterruptionBehavior() == CancelIncoming {
		s.logger.Warn("Registering a non-interruptible default command", map[string]interface{}{
			"operation": "set_default_command",
			"subsystem": subsystem.Name(),
			"command":   defaultCommand.Name(),
			"impact":    "other commands will not be able to require this subsystem",
		})
	}
	if _, ok := s.subsystems[subsystem]; !ok {
		s.RegisterSubsystem(subsystem)
	}
	s.subsystems[subsystem] = defaultCommand
	return nil
}

// GetDefaultCommand returns the subsystem's default command, or nil.
func (s *Scheduler) GetDefaultCommand(subsystem Subsystem) Command {
	return s.subsystems[subsystem]
}

// RemoveDefaultCommand clears the subsystem's default command slot without
// unregistering the subsystem.
func (s *Scheduler) RemoveDefaultCommand(subsystem Subsystem) {
	if _, ok := s.subsystems[subsystem]; ok {
		s.subsystems[subsystem] = nil
	}
}

// OnCommandInitialize registers a callback invoked whenever a command is
// initialized. Hooks cannot be unregistered.
func (s *Scheduler) OnCommandInitialize(action func(Command)) {
	if action != nil {
		s.initActions = append(s.initActions, action)
	}
}

// OnCommandExecute registers a callback invoked after each command Execute.
func (s *Scheduler) OnCommandExecute(action func(Command)) {
	if action != nil {
		s.executeActions = append(s.executeActions, action)
	}
}

// OnCommandInterrupt registers a callback invoked whenever a command is
// interrupted; the second argument is the interrupting command, or nil when
// the cancellation had no interruptor.
func (s *Scheduler) OnCommandInterrupt(action func(interrupted Command, interruptor Command)) {
	if action != nil {
		s.interruptActions = append(s.interruptActions, action)
	}
}

// OnCommandFinish registers a callback invoked whenever a command finishes
// normally.
func (s *Scheduler) OnCommandFinish(action func(Command)) {
	if action != nil {
		s.finishActions = append(s.finishActions, action)
	}
}

// Disable stops the scheduler: Run becomes a no-op and Schedule silently
// refuses. Already-scheduled commands are left as they are.
func (s *Scheduler) Disable() {
	s.disabled = true
}

// Enable resumes the scheduler after Disable.
func (s *Scheduler) Enable() {
	s.disabled = false
}

// invokeHook isolates a user callback so one failing hook never prevents
// subsequent hooks from running.
func (s *Scheduler) invokeHook(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduler hook panicked", map[string]interface{}{
				"operation": kind,
				"panic":     fmt.Sprintf("%v", r),
			})
			if registry := core.GetGlobalMetricsRegistry(); registry != nil {
				registry.Counter("scheduler.hooks.panics", "hook", kind)
			}
		}
	}()
	fn()
}

// InitSendable publishes the scheduler through a telemetry sink: the names
// and identities of scheduled commands, plus a writable Cancel array that
// cancels each referenced command when set.
func (s *Scheduler) InitSendable(builder core.SendableBuilder) {
	builder.SetSmartDashboardType("Scheduler")
	builder.AddStringArrayProperty("Names",
		func() []string {
			names := make([]string, 0, len(s.order))
			for _, c := range s.order {
				names = append(names, c.Name())
			}
			return names
		}, nil)
	builder.AddIntegerArrayProperty("Ids",
		func() []int64 {
			ids := make([]int64, 0, len(s.order))
			for _, c := range s.order {
				ids = append(ids, c.ID())
			}
			return ids
		}, nil)
	builder.AddIntegerArrayProperty("Cancel",
		func() []int64 { return nil },
		func(toCancel []int64) {
			for _, id := range toCancel {
				for _, c := range s.order {
					if c.ID() == id {
						s.cancel(c, nil)
						break
					}
				}
			}
		})
}
