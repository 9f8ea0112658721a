// Package cache holds the latest sensor reading and the last known actuator
// states. It is the single shared-state object between the telemetry path,
// the evaluators and the dispatcher; all access is lock-protected.
package cache

import (
	"sync"

	"homeauto/internal/models"
)

// Cache is the engine's telemetry cache. Last write wins, no merging.
type Cache struct {
	mu         sync.RWMutex
	latest     *models.SensorReading
	states     map[string]models.DeviceState
	lastAction string
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{states: make(map[string]models.DeviceState)}
}

// Ingest replaces the cached reading unconditionally.
func (c *Cache) Ingest(r models.SensorReading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = &r
}

// Latest returns the most recent reading, if any.
func (c *Cache) Latest() (models.SensorReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return models.SensorReading{}, false
	}
	return *c.latest, true
}

// ApplyStatus overwrites the cached state for every device the event carries.
// Status events are authoritative: they also overwrite optimistic state set by
// the dispatcher.
func (c *Cache) ApplyStatus(ev models.StatusEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for device, st := range ev.States() {
		c.states[device] = st
	}
}

// State returns the last known state for a device.
func (c *Cache) State(device string) (models.DeviceState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.states[device]
	return st, ok
}

// SetState records an optimistic state after a successful command publish.
func (c *Cache) SetState(device string, st models.DeviceState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[device] = st
}

// States returns a copy of all known device states.
func (c *Cache) States() map[string]models.DeviceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.DeviceState, len(c.states))
	for k, v := range c.states {
		out[k] = v
	}
	return out
}

// SetLastAction records the most recent dispatched action for the status API.
func (c *Cache) SetLastAction(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAction = s
}

// LastAction returns the most recent dispatched action, empty if none yet.
func (c *Cache) LastAction() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAction
}
