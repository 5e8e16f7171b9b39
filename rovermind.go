// Package rovermind provides a lightweight meta-module that re-exports the
// framework's primary types. This is the main entry point for the RoverMind
// command framework; users should import specific packages based on their
// needs:
//   - github.com/itsneelabh/rovermind/core - configuration, logging, errors
//   - github.com/itsneelabh/rovermind/command - scheduler, commands, triggers
//   - github.com/itsneelabh/rovermind/telemetry - observability
//   - github.com/itsneelabh/rovermind/dashboard - dashboard publishing
package rovermind

import (
	"github.com/itsneelabh/rovermind/command"
	"github.com/itsneelabh/rovermind/core"
)

// Re-export core types
type (
	// Configuration types
	Config            = core.Config
	Option            = core.Option
	SchedulerConfig   = core.SchedulerConfig
	TelemetryConfig   = core.TelemetryConfig
	DashboardConfig   = core.DashboardConfig
	LoggingConfig     = core.LoggingConfig
	DevelopmentConfig = core.DevelopmentConfig

	// Interfaces
	Logger          = core.Logger
	Telemetry       = core.Telemetry
	Span            = core.Span
	RobotState      = core.RobotState
	Sendable        = core.Sendable
	SendableBuilder = core.SendableBuilder

	// Command types
	Command    = command.Command
	CommandPtr = command.CommandPtr
	Scheduler  = command.Scheduler
	Subsystem  = command.Subsystem
	Trigger    = command.Trigger
	EventLoop  = command.EventLoop
)

// Re-export constants
const (
	CancelSelf     = command.CancelSelf
	CancelIncoming = command.CancelIncoming
)

// NewConfig creates a framework configuration; see core.NewConfig.
var NewConfig = core.NewConfig

// GetScheduler returns the process-wide command scheduler.
var GetScheduler = command.GetInstance
