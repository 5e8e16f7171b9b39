package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/itsneelabh/rovermind/core"
	"github.com/itsneelabh/rovermind/resilience"
)

// RedisPublisher mirrors the property tables into Redis so external
// dashboards can observe scheduler state and write back. Each entity's
// snapshot is stored as a hash at "<prefix>:entity:<name>"; dashboards push
// writes as JSON onto the "<prefix>:writes" list, which ApplyWrites drains
// and applies through the builders' setters.
//
// Publish and ApplyWrites must be called from the robot's tick thread, the
// same thread that drives Scheduler.Run; the Redis round-trips are the only
// thing that leaves the process.
type RedisPublisher struct {
	*Publisher
	client    *redis.Client
	keyPrefix string
	logger    core.Logger

	// Redis round-trips run under retry-with-breaker: transient errors get
	// a quick second attempt, while a dead backend trips the breaker so it
	// never stalls the robot loop on connection timeouts.
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
}

// propertyWrite is the JSON wire form of a dashboard write.
type propertyWrite struct {
	Entity   string          `json:"entity"`
	Property string          `json:"property"`
	Value    json.RawMessage `json:"value"`
}

// NewRedisPublisher connects to Redis using the configured URL and returns
// a publisher mirroring into the configured key prefix.
func NewRedisPublisher(ctx context.Context, cfg core.DashboardConfig, logger core.Logger) (*RedisPublisher, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL %q: %w", cfg.RedisURL, err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	breakerCfg := resilience.DefaultCircuitBreakerConfig("dashboard-redis")
	breakerCfg.Logger = logger

	p := &RedisPublisher{
		Publisher: NewPublisher(logger),
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger,
		breaker:   resilience.NewCircuitBreaker(breakerCfg),
		retry:     resilience.DashboardRetryConfig(),
	}

	logger.Info("Redis dashboard publisher connected", map[string]interface{}{
		"operation":   "connect",
		"key_prefix":  cfg.KeyPrefix,
		"instance_id": p.InstanceID(),
	})
	return p, nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) entityKey(name string) string {
	return fmt.Sprintf("%s:entity:%s", p.keyPrefix, name)
}

func (p *RedisPublisher) writesKey() string {
	return fmt.Sprintf("%s:writes", p.keyPrefix)
}

// Publish samples every entity and mirrors the snapshots into Redis hashes.
func (p *RedisPublisher) Publish(ctx context.Context) error {
	p.Update()

	for _, name := range p.Entities() {
		snapshot := p.Snapshot(name)
		if snapshot == nil {
			continue
		}

		fields := make(map[string]interface{}, len(snapshot)+1)
		fields[".instance"] = p.InstanceID()
		for _, key := range sortedKeys(snapshot) {
			encoded, err := json.Marshal(snapshot[key])
			if err != nil {
				p.logger.Error("Failed to encode dashboard property", map[string]interface{}{
					"operation": "publish",
					"entity":    name,
					"property":  key,
					"error":     err.Error(),
				})
				continue
			}
			fields[key] = string(encoded)
		}

		err := resilience.RetryWithCircuitBreaker(ctx, p.retry, p.breaker, func() error {
			return p.client.HSet(ctx, p.entityKey(name), fields).Err()
		})
		if err != nil {
			if registry := core.GetGlobalMetricsRegistry(); registry != nil {
				registry.Counter("dashboard.publish.errors", "provider", "redis")
			}
			return fmt.Errorf("failed to publish entity %s: %w", name, err)
		}
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("dashboard.updates", "provider", "redis")
	}
	return nil
}

// ApplyWrites drains pending dashboard writes and applies each through the
// target entity's property setters. Unknown entities, unknown properties,
// and read-only properties are logged and skipped; a malformed entry never
// stops the drain.
func (p *RedisPublisher) ApplyWrites(ctx context.Context) error {
	for {
		var raw string
		err := resilience.RetryWithCircuitBreaker(ctx, p.retry, p.breaker, func() error {
			var popErr error
			raw, popErr = p.client.LPop(ctx, p.writesKey()).Result()
			if popErr == redis.Nil {
				raw = ""
				return nil
			}
			return popErr
		})
		if err != nil {
			return fmt.Errorf("failed to read dashboard writes: %w", err)
		}
		if raw == "" {
			return nil
		}

		var write propertyWrite
		if err := json.Unmarshal([]byte(raw), &write); err != nil {
			p.logger.Warn("Discarding malformed dashboard write", map[string]interface{}{
				"operation": "apply_writes",
				"raw":       raw,
				"error":     err.Error(),
			})
			continue
		}
		p.applyWrite(write)
	}
}

func (p *RedisPublisher) applyWrite(write propertyWrite) {
	builder := p.Builder(write.Entity)
	if builder == nil {
		p.logger.Warn("Dashboard write for unknown entity", map[string]interface{}{
			"operation": "apply_writes",
			"entity":    write.Entity,
			"property":  write.Property,
		})
		return
	}

	applied := false
	var boolValue bool
	var stringValue string
	var intArrayValue []int64

	if err := json.Unmarshal(write.Value, &boolValue); err == nil {
		applied = builder.SetBoolean(write.Property, boolValue)
	} else if err := json.Unmarshal(write.Value, &stringValue); err == nil {
		applied = builder.SetString(write.Property, stringValue)
	} else if err := json.Unmarshal(write.Value, &intArrayValue); err == nil {
		applied = builder.SetIntegerArray(write.Property, intArrayValue)
	}

	if !applied {
		p.logger.Warn("Dashboard write not applied", map[string]interface{}{
			"operation": "apply_writes",
			"entity":    write.Entity,
			"property":  write.Property,
			"reason":    "unknown, read-only, or type-mismatched property",
		})
		return
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("dashboard.writes.applied", "entity", write.Entity)
	}
}
