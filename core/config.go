package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the RoverMind framework.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// The configuration automatically detects the execution environment
// (real robot vs simulation/desktop) and adjusts defaults accordingly.
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("my-robot"),
//	    WithPeriod(20*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Core configuration
	Name string `json:"name" yaml:"name" env:"ROVERMIND_ROBOT_NAME"`
	ID   string `json:"id" yaml:"id" env:"ROVERMIND_ROBOT_ID"`

	// Scheduler configuration
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Dashboard configuration
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Development configuration
	Development DevelopmentConfig `json:"development" yaml:"development"`

	// Logger instance for configuration operations (excluded from JSON)
	logger Logger `json:"-" yaml:"-"`
}

// SchedulerConfig contains the command scheduler's loop configuration.
// The period is the nominal tick interval the external tick source drives
// run() at; the watchdog measures each tick against it.
type SchedulerConfig struct {
	Period           time.Duration `json:"period" yaml:"period" env:"ROVERMIND_SCHEDULER_PERIOD" default:"20ms"`
	WatchdogEnabled  bool          `json:"watchdog_enabled" yaml:"watchdog_enabled" env:"ROVERMIND_WATCHDOG_ENABLED" default:"true"`
	Simulation       bool          `json:"simulation" yaml:"simulation" env:"ROVERMIND_SIMULATION" default:"false"`
	RegisterSendable bool          `json:"register_sendable" yaml:"register_sendable" env:"ROVERMIND_SCHEDULER_SENDABLE" default:"true"`
}

// TelemetryConfig contains observability configuration for metrics and
// distributed tracing. This is an optional module - telemetry is only
// initialized when Enabled=true. Supports OpenTelemetry (OTEL) protocol;
// the endpoint should be the OTLP receiver address.
type TelemetryConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled" env:"ROVERMIND_TELEMETRY_ENABLED" default:"false"`
	Provider       string  `json:"provider" yaml:"provider" env:"ROVERMIND_TELEMETRY_PROVIDER" default:"otel"`
	Endpoint       string  `json:"endpoint" yaml:"endpoint" env:"ROVERMIND_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string  `json:"service_name" yaml:"service_name" env:"ROVERMIND_TELEMETRY_SERVICE_NAME,OTEL_SERVICE_NAME"`
	MetricsEnabled bool    `json:"metrics_enabled" yaml:"metrics_enabled" env:"ROVERMIND_TELEMETRY_METRICS" default:"true"`
	TracingEnabled bool    `json:"tracing_enabled" yaml:"tracing_enabled" env:"ROVERMIND_TELEMETRY_TRACING" default:"true"`
	SamplingRate   float64 `json:"sampling_rate" yaml:"sampling_rate" env:"ROVERMIND_TELEMETRY_SAMPLING_RATE" default:"1.0"`
	Insecure       bool    `json:"insecure" yaml:"insecure" env:"ROVERMIND_TELEMETRY_INSECURE" default:"true"`
}

// DashboardConfig contains dashboard publishing configuration.
// Supports an in-memory sink (default, used by tests and local development)
// or Redis for publishing scheduler state to external dashboards.
type DashboardConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled" env:"ROVERMIND_DASHBOARD_ENABLED" default:"false"`
	Provider        string        `json:"provider" yaml:"provider" env:"ROVERMIND_DASHBOARD_PROVIDER" default:"memory"`
	RedisURL        string        `json:"redis_url" yaml:"redis_url" env:"ROVERMIND_REDIS_URL,REDIS_URL"`
	PublishInterval time.Duration `json:"publish_interval" yaml:"publish_interval" env:"ROVERMIND_DASHBOARD_PUBLISH_INTERVAL" default:"100ms"`
	KeyPrefix       string        `json:"key_prefix" yaml:"key_prefix" env:"ROVERMIND_DASHBOARD_KEY_PREFIX" default:"rovermind:dashboard"`
}

// UnmarshalYAML accepts humane duration strings ("20ms") for the period,
// which yaml.v3 does not decode into time.Duration on its own.
func (s *SchedulerConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias struct {
		Period           string `yaml:"period"`
		WatchdogEnabled  *bool  `yaml:"watchdog_enabled"`
		Simulation       *bool  `yaml:"simulation"`
		RegisterSendable *bool  `yaml:"register_sendable"`
	}
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if a.Period != "" {
		d, err := time.ParseDuration(a.Period)
		if err != nil {
			return fmt.Errorf("%w: invalid scheduler period %q", ErrInvalidConfiguration, a.Period)
		}
		s.Period = d
	}
	if a.WatchdogEnabled != nil {
		s.WatchdogEnabled = *a.WatchdogEnabled
	}
	if a.Simulation != nil {
		s.Simulation = *a.Simulation
	}
	if a.RegisterSendable != nil {
		s.RegisterSendable = *a.RegisterSendable
	}
	return nil
}

// UnmarshalYAML accepts humane duration strings for the publish interval.
func (d *DashboardConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias struct {
		Enabled         *bool  `yaml:"enabled"`
		Provider        string `yaml:"provider"`
		RedisURL        string `yaml:"redis_url"`
		PublishInterval string `yaml:"publish_interval"`
		KeyPrefix       string `yaml:"key_prefix"`
	}
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if a.Enabled != nil {
		d.Enabled = *a.Enabled
	}
	if a.Provider != "" {
		d.Provider = a.Provider
	}
	if a.RedisURL != "" {
		d.RedisURL = a.RedisURL
	}
	if a.PublishInterval != "" {
		interval, err := time.ParseDuration(a.PublishInterval)
		if err != nil {
			return fmt.Errorf("%w: invalid publish interval %q", ErrInvalidConfiguration, a.PublishInterval)
		}
		d.PublishInterval = interval
	}
	if a.KeyPrefix != "" {
		d.KeyPrefix = a.KeyPrefix
	}
	return nil
}

// LoggingConfig contains logging configuration.
// Supports structured (JSON) and human-readable (text) formats.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" env:"ROVERMIND_LOG_LEVEL" default:"info"`
	Format     string `json:"format" yaml:"format" env:"ROVERMIND_LOG_FORMAT" default:"json"`
	Output     string `json:"output" yaml:"output" env:"ROVERMIND_LOG_OUTPUT" default:"stdout"`
	TimeFormat string `json:"time_format" yaml:"time_format" env:"ROVERMIND_LOG_TIME_FORMAT" default:"2006-01-02T15:04:05.000Z07:00"`
}

// DevelopmentConfig contains settings for local development and testing.
// Enabled marks development mode; WithDevelopmentMode and desktop detection
// set it together with text-format logs. Debug logging follows DebugLogging
// (or a "debug" log level), not Enabled.
type DevelopmentConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled" env:"ROVERMIND_DEV_MODE" default:"false"`
	DebugLogging bool `json:"debug_logging" yaml:"debug_logging" env:"ROVERMIND_DEBUG" default:"false"`
	PrettyLogs   bool `json:"pretty_logs" yaml:"pretty_logs" env:"ROVERMIND_PRETTY_LOGS" default:"false"`
}

// Option is a functional option for configuring the framework.
// Options are applied in order and can return an error if the configuration
// is invalid.
//
// Example:
//
//	func WithFastLoop() Option {
//	    return func(c *Config) error {
//	        c.Scheduler.Period = 10 * time.Millisecond
//	        return nil
//	    }
//	}
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
// The defaults are adjusted based on the detected environment:
//   - Robot target (ROVERMIND_ROBOT_TARGET set): JSON logging, watchdog on
//   - Desktop: simulation mode, text logging, development mode
//
// These defaults can be overridden using functional options or environment
// variables.
func DefaultConfig() *Config {
	cfg := &Config{
		Name: "rovermind-robot",
		Scheduler: SchedulerConfig{
			Period:           20 * time.Millisecond,
			WatchdogEnabled:  true,
			Simulation:       false,
			RegisterSendable: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Provider:       "otel",
			MetricsEnabled: true,
			TracingEnabled: true,
			SamplingRate:   1.0,
			Insecure:       true,
		},
		Dashboard: DashboardConfig{
			Enabled:         false,
			Provider:        "memory",
			PublishInterval: 100 * time.Millisecond,
			KeyPrefix:       "rovermind:dashboard",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: time.RFC3339Nano,
		},
		Development: DevelopmentConfig{
			Enabled:      false,
			DebugLogging: false,
			PrettyLogs:   false,
		},
	}

	// Detect environment and adjust defaults
	cfg.DetectEnvironment()

	return cfg
}

// DetectEnvironment automatically adjusts configuration based on the detected
// execution environment. Called by DefaultConfig(); call directly only when
// implementing custom detection logic.
//
// Detection criteria:
//   - Robot target: ROVERMIND_ROBOT_TARGET environment variable is set
//   - Desktop: no robot target detected; simulation mode is assumed
func (c *Config) DetectEnvironment() {
	if os.Getenv("ROVERMIND_ROBOT_TARGET") != "" {
		// Deployed to a robot controller
		c.Logging.Format = "json"
		c.Dashboard.RedisURL = "redis://localhost:6379"
	} else {
		// Desktop environment - assume simulation
		c.Scheduler.Simulation = true
		c.Dashboard.RedisURL = "redis://localhost:6379"

		if os.Getenv("ROVERMIND_DEV_MODE") == "" {
			c.Development.Enabled = true
			c.Development.PrettyLogs = true
			c.Logging.Format = "text"
		}
	}
}

// LoadFromEnv loads configuration from environment variables. Unparseable
// values are skipped; it does not validate the result (NewConfig does).
// Environment variables take precedence over defaults but are overridden by
// functional options.
//
// Variable naming convention:
//   - Framework-specific: ROVERMIND_<SETTING>
//   - Standard variables: REDIS_URL, OTEL_EXPORTER_OTLP_ENDPOINT
func (c *Config) LoadFromEnv() error {
	if c.logger != nil {
		c.logger.Info("Loading configuration from environment", map[string]interface{}{
			"config_source": "environment_variables",
		})
	}

	// Core settings
	if v := os.Getenv("ROVERMIND_ROBOT_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("ROVERMIND_ROBOT_ID"); v != "" {
		c.ID = v
	}

	// Scheduler settings
	if v := os.Getenv("ROVERMIND_SCHEDULER_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Scheduler.Period = d
		} else if c.logger != nil {
			c.logger.Warn("Invalid scheduler period in environment variable", map[string]interface{}{
				"ROVERMIND_SCHEDULER_PERIOD": v,
				"error":                      err,
			})
		}
	}
	if v := os.Getenv("ROVERMIND_WATCHDOG_ENABLED"); v != "" {
		c.Scheduler.WatchdogEnabled = parseBool(v)
	}
	if v := os.Getenv("ROVERMIND_SIMULATION"); v != "" {
		c.Scheduler.Simulation = parseBool(v)
	}

	// Telemetry settings
	if v := os.Getenv("ROVERMIND_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROVERMIND_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true // Auto-enable if endpoint is provided
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	}
	if v := os.Getenv("ROVERMIND_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	} else if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("ROVERMIND_TELEMETRY_SAMPLING_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 && rate <= 1 {
			c.Telemetry.SamplingRate = rate
		}
	}

	// Dashboard settings
	if v := os.Getenv("ROVERMIND_DASHBOARD_ENABLED"); v != "" {
		c.Dashboard.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROVERMIND_DASHBOARD_PROVIDER"); v != "" {
		c.Dashboard.Provider = v
	}
	if v := os.Getenv("ROVERMIND_REDIS_URL"); v != "" {
		c.Dashboard.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Dashboard.RedisURL = v
	}
	if v := os.Getenv("ROVERMIND_DASHBOARD_PUBLISH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Dashboard.PublishInterval = d
		}
	}
	if v := os.Getenv("ROVERMIND_DASHBOARD_KEY_PREFIX"); v != "" {
		c.Dashboard.KeyPrefix = v
	}

	// Logging settings
	if v := os.Getenv("ROVERMIND_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ROVERMIND_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ROVERMIND_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}

	// Development settings
	if v := os.Getenv("ROVERMIND_DEV_MODE"); v != "" {
		c.Development.Enabled = parseBool(v)
	}
	if v := os.Getenv("ROVERMIND_DEBUG"); v != "" {
		c.Development.DebugLogging = parseBool(v)
	}
	if v := os.Getenv("ROVERMIND_PRETTY_LOGS"); v != "" {
		c.Development.PrettyLogs = parseBool(v)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
// File values are applied on top of the current configuration, so the usual
// precedence still holds when called before functional options are applied.
func (c *Config) LoadFromFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		if c.logger != nil {
			c.logger.Error("Unsupported configuration file format", map[string]interface{}{
				"path":              path,
				"extension":         ext,
				"supported_formats": []string{".json", ".yaml", ".yml"},
			})
		}
		return fmt.Errorf("%w: unsupported config file format %q", ErrInvalidConfiguration, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	}

	if c.logger != nil {
		c.logger.Info("Configuration loaded from file", map[string]interface{}{
			"path":   path,
			"format": ext,
		})
	}

	return nil
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Scheduler.Period <= 0 {
		return fmt.Errorf("%w: scheduler period must be positive, got %v",
			ErrInvalidConfiguration, c.Scheduler.Period)
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("%w: telemetry sampling rate must be in [0, 1], got %v",
			ErrInvalidConfiguration, c.Telemetry.SamplingRate)
	}
	switch c.Dashboard.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: unknown dashboard provider %q",
			ErrInvalidConfiguration, c.Dashboard.Provider)
	}
	if c.Dashboard.Provider == "redis" && c.Dashboard.RedisURL == "" {
		return fmt.Errorf("%w: redis dashboard provider requires a redis URL",
			ErrInvalidConfiguration)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q",
			ErrInvalidConfiguration, c.Logging.Format)
	}
	return nil
}

// Logger returns the configured logger instance.
func (c *Config) Logger() Logger {
	return c.logger
}

// Functional options

// WithName sets the robot program name used in logs and telemetry.
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfiguration)
		}
		c.Name = name
		return nil
	}
}

// WithPeriod sets the nominal scheduler tick period the watchdog measures
// against.
func WithPeriod(period time.Duration) Option {
	return func(c *Config) error {
		if period <= 0 {
			return fmt.Errorf("%w: period must be positive", ErrInvalidConfiguration)
		}
		c.Scheduler.Period = period
		return nil
	}
}

// WithSimulation toggles simulation mode; in simulation the scheduler also
// invokes each subsystem's SimulationPeriodic hook.
func WithSimulation(enabled bool) Option {
	return func(c *Config) error {
		c.Scheduler.Simulation = enabled
		return nil
	}
}

// WithRedisURL configures the Redis endpoint used by the dashboard publisher
// and selects the redis provider.
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		if url == "" {
			return fmt.Errorf("%w: redis URL cannot be empty", ErrInvalidConfiguration)
		}
		c.Dashboard.RedisURL = url
		c.Dashboard.Provider = "redis"
		c.Dashboard.Enabled = true
		return nil
	}
}

// WithTelemetryEnabled enables telemetry export to the given OTLP endpoint.
func WithTelemetryEnabled(endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = endpoint
		return nil
	}
}

// WithLogger injects a custom logger, replacing the ProductionLogger that
// NewConfig would otherwise construct.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfiguration)
		}
		c.logger = logger
		return nil
	}
}

// WithDevelopmentMode enables development-friendly defaults: pretty text
// logs and debug logging.
func WithDevelopmentMode() Option {
	return func(c *Config) error {
		c.Development.Enabled = true
		c.Development.DebugLogging = true
		c.Development.PrettyLogs = true
		c.Logging.Format = "text"
		return nil
	}
}

// NewConfig creates a configuration with the three-layer precedence applied.
//
// Example:
//
//	cfg, err := NewConfig(
//	    WithName("comp-bot"),
//	    WithPeriod(20*time.Millisecond),
//	)
//	if err != nil {
//	    return err
//	}
func NewConfig(opts ...Option) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load from environment first
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	// Apply functional options (these override env vars)
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.logger == nil {
		logger := NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name)

		// Track for metrics enabling when telemetry available
		if prodLogger, ok := logger.(*ProductionLogger); ok {
			trackLogger(prodLogger)
		}

		cfg.logger = logger
	}

	// Validate final configuration after options applied
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// ============================================================================
// ProductionLogger Implementation - Layered Observability Architecture
// ============================================================================

// ProductionLogger provides layered observability for framework operations
type ProductionLogger struct {
	level       string
	debug       bool
	serviceName string
	component   string
	format      string
	output      io.Writer

	// Metrics layer (enabled when telemetry available)
	metricsEnabled bool
}

// NewProductionLogger creates a logger from LoggingConfig
func NewProductionLogger(logging LoggingConfig, dev DevelopmentConfig, serviceName string) Logger {
	var output io.Writer = os.Stdout
	if logging.Output == "stderr" {
		output = os.Stderr
	}

	return &ProductionLogger{
		level:          strings.ToLower(logging.Level),
		debug:          dev.DebugLogging || logging.Level == "debug",
		serviceName:    serviceName,
		component:      "framework",
		format:         logging.Format,
		output:         output,
		metricsEnabled: false, // Enabled by telemetry module when available
	}
}

// EnableMetrics is called by telemetry module to enable metrics layer
func (p *ProductionLogger) EnableMetrics() {
	p.metricsEnabled = true
}

// WithComponent returns a logger that stamps the given component on every
// entry, sharing the parent's configuration and output.
func (p *ProductionLogger) WithComponent(component string) Logger {
	clone := *p
	clone.component = component
	return &clone
}

func (p *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, nil)
}

func (p *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, ctx)
}

func (p *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, nil)
}

func (p *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, ctx)
}

func (p *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, nil)
}

func (p *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, ctx)
}

func (p *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, nil)
	}
}

func (p *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, ctx)
	}
}

// Core logging implementation with all three layers
func (p *ProductionLogger) logEvent(level, msg string, fields map[string]interface{}, ctx context.Context) {
	timestamp := time.Now().Format(time.RFC3339)

	if p.format == "json" {
		// Structured logging for production log aggregation
		logEntry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   p.serviceName,
			"component": p.component,
			"message":   msg,
		}

		// Add trace context when available
		if ctx != nil && p.metricsEnabled {
			if baggage := getContextBaggage(ctx); len(baggage) > 0 {
				for k, v := range baggage {
					logEntry["trace."+k] = v
				}
			}
		}

		// Add all fields
		for k, v := range fields {
			logEntry[k] = v
		}

		if data, err := json.Marshal(logEntry); err == nil {
			fmt.Fprintln(p.output, string(data))
		}
	} else {
		// Human-readable for local development
		var fieldStr strings.Builder
		if len(fields) > 0 {
			fieldStr.WriteString(" ")
			for k, v := range fields {
				fieldStr.WriteString(fmt.Sprintf("%s=%v ", k, v))
			}
		}

		fmt.Fprintf(p.output, "%s [%s] [%s] %s%s\n",
			timestamp, level, p.serviceName, msg, fieldStr.String())
	}

	if p.metricsEnabled {
		p.emitFrameworkMetric(level, fields, ctx)
	}
}

// Metrics emission with cardinality protection
func (p *ProductionLogger) emitFrameworkMetric(level string, fields map[string]interface{}, ctx context.Context) {
	// Build labels with cardinality awareness
	labels := []string{
		"level", level,
		"service", p.serviceName,
		"component", p.component,
	}

	// Add only low-cardinality fields as labels
	for k, v := range fields {
		switch k {
		case "operation", "status", "error_type", "phase", "provider":
			labels = append(labels, k, fmt.Sprintf("%v", v))
		}
	}

	// Emit with context when available (enables correlation)
	if ctx != nil {
		emitMetricWithContext(ctx, "rovermind.framework.operations", 1.0, labels...)
	} else {
		emitMetric("rovermind.framework.operations", 1.0, labels...)
	}
}

// Helper functions for weak coupling to telemetry
func emitMetric(name string, value float64, labels ...string) {
	if globalMetricsRegistry != nil {
		globalMetricsRegistry.Counter(name, labels...)
	}
}

func emitMetricWithContext(ctx context.Context, name string, value float64, labels ...string) {
	if globalMetricsRegistry != nil {
		globalMetricsRegistry.EmitWithContext(ctx, name, value, labels...)
	}
}

func getContextBaggage(ctx context.Context) map[string]string {
	if globalMetricsRegistry != nil {
		return globalMetricsRegistry.GetBaggage(ctx)
	}
	return make(map[string]string)
}
