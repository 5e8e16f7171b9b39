package dashboard

import (
	"sync"

	"github.com/google/uuid"

	"github.com/itsneelabh/rovermind/core"
)

// Publisher maintains the set of registered Sendable entities and their
// property tables. It is the in-memory sink: Update samples every getter
// into a retained snapshot that tools can read, and writes are applied
// synchronously through the builders' setters.
//
// Publishing runs on the robot's tick thread; call Update from the robot
// loop after Scheduler.Run.
type Publisher struct {
	instanceID string
	logger     core.Logger

	mu        sync.Mutex
	order     []string
	builders  map[string]*TableBuilder
	snapshots map[string]map[string]interface{}
}

// NewPublisher creates an in-memory dashboard publisher.
func NewPublisher(logger core.Logger) *Publisher {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("framework/dashboard")
	}
	return &Publisher{
		instanceID: uuid.New().String(),
		logger:     logger,
		builders:   make(map[string]*TableBuilder),
		snapshots:  make(map[string]map[string]interface{}),
	}
}

// InstanceID returns the unique identity of this publisher instance,
// distinguishing robot restarts on shared backends.
func (p *Publisher) InstanceID() string {
	return p.instanceID
}

// Register adds a Sendable entity under the given name. The entity's
// InitSendable runs once, installing its property closures. Registering a
// name twice replaces the previous entity and is warned.
func (p *Publisher) Register(name string, sendable core.Sendable) *TableBuilder {
	builder := NewTableBuilder()
	sendable.InitSendable(builder)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.builders[name]; ok {
		p.logger.Warn("Replacing already-registered dashboard entity", map[string]interface{}{
			"operation": "register",
			"entity":    name,
		})
	} else {
		p.order = append(p.order, name)
	}
	p.builders[name] = builder
	return builder
}

// Unregister removes an entity from the publisher.
func (p *Publisher) Unregister(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.builders[name]; !ok {
		return
	}
	delete(p.builders, name)
	delete(p.snapshots, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Entities returns registered entity names in registration order.
func (p *Publisher) Entities() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Builder returns the property table for a registered entity, or nil.
func (p *Publisher) Builder(name string) *TableBuilder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builders[name]
}

// Update samples every registered entity's getters into the retained
// snapshots. Call it from the tick thread.
func (p *Publisher) Update() {
	p.mu.Lock()
	names := make([]string, len(p.order))
	copy(names, p.order)
	p.mu.Unlock()

	for _, name := range names {
		builder := p.Builder(name)
		if builder == nil {
			continue
		}
		snapshot := builder.Snapshot()
		p.mu.Lock()
		p.snapshots[name] = snapshot
		p.mu.Unlock()
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("dashboard.updates", "provider", "memory")
	}
}

// Snapshot returns the last published values for an entity, or nil if the
// entity is unknown or Update has not run yet.
func (p *Publisher) Snapshot(name string) map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot, ok := p.snapshots[name]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	return out
}
