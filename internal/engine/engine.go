// Package engine is the automation decision core: it consumes telemetry and
// device-status events, evaluates threshold and scenario rules against them
// and funnels the resulting decisions through the dispatcher.
package engine

import (
	"context"
	"encoding/json"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"homeauto/internal/cache"
	"homeauto/internal/clock"
	"homeauto/internal/logger"
	"homeauto/internal/metrics"
	"homeauto/internal/models"
)

// RuleStore is the engine's read-only view of the rule/config store. Each
// evaluation pass reads a fresh snapshot so a concurrent configuration write
// is never observed half-applied.
type RuleStore interface {
	GetThresholdRules(ctx context.Context) ([]models.ThresholdRule, error)
	GetScenarioRules(ctx context.Context) ([]models.ScenarioRule, error)
	GetAutomationConfig(ctx context.Context) (models.AutomationConfig, error)
}

// ReadingRecorder appends readings to the telemetry history.
type ReadingRecorder interface {
	InsertSensorReading(ctx context.Context, r models.SensorReading) error
}

// Engine subscribes to the telemetry topics and runs one evaluation pass per
// inbound reading.
type Engine struct {
	mqttClient  mqtt.Client
	cache       *cache.Cache
	store       RuleStore
	history     ReadingRecorder
	dispatcher  *Dispatcher
	clock       clock.Clock
	log         *logger.Logger
	sensorTopic string
	statusTopic string

	badMu    sync.Mutex
	badRules map[string]bool
}

// NewEngine creates the engine. history may be nil to disable persistence of
// the reading stream.
func NewEngine(mqttClient mqtt.Client, c *cache.Cache, store RuleStore, history ReadingRecorder, dispatcher *Dispatcher, clk clock.Clock, log *logger.Logger, sensorTopic, statusTopic string) *Engine {
	return &Engine{
		mqttClient:  mqttClient,
		cache:       c,
		store:       store,
		history:     history,
		dispatcher:  dispatcher,
		clock:       clk,
		log:         log,
		sensorTopic: sensorTopic,
		statusTopic: statusTopic,
		badRules:    make(map[string]bool),
	}
}

// Start subscribes to the sensor and status topics.
func (e *Engine) Start() error {
	e.log.Infow("subscribing", "topic", e.sensorTopic)
	if token := e.mqttClient.Subscribe(e.sensorTopic, 1, e.onSensorMessage); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	e.log.Infow("subscribing", "topic", e.statusTopic)
	if token := e.mqttClient.Subscribe(e.statusTopic, 1, e.onStatusMessage); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	e.log.Info("engine started")
	return nil
}

// Stop disconnects from the broker.
func (e *Engine) Stop() {
	e.mqttClient.Disconnect(250)
	e.log.Info("engine stopped")
}

// onSensorMessage handles one inbound telemetry event. Malformed payloads are
// dropped with a warning; ingestion never raises.
func (e *Engine) onSensorMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading models.SensorReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		metrics.IncReadingDropped("unparsable")
		e.log.Warnw("dropping unparsable telemetry payload", "topic", msg.Topic(), "err", err)
		return
	}
	if reading.Empty() {
		metrics.IncReadingDropped("no_measurements")
		e.log.Warnw("dropping reading without measurements", "topic", msg.Topic(), "device", reading.DeviceID)
		return
	}
	if reading.ObservedAt.IsZero() {
		reading.ObservedAt = e.clock.Now()
	}

	e.cache.Ingest(reading)
	metrics.IncReadingIngested()

	if e.history != nil {
		r := reading
		go func() {
			if err := e.history.InsertSensorReading(context.Background(), r); err != nil {
				e.log.Warnw("failed to persist reading", "err", err)
			}
		}()
	}

	e.EvaluateReading(context.Background(), reading)
}

// onStatusMessage applies an authoritative actuator status report to the cache.
func (e *Engine) onStatusMessage(_ mqtt.Client, msg mqtt.Message) {
	var ev models.StatusEvent
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		e.log.Warnw("dropping unparsable status payload", "topic", msg.Topic(), "err", err)
		return
	}
	e.cache.ApplyStatus(ev)
}

// EvaluateReading runs one synchronous evaluation pass: threshold rules first,
// then scenarios, dispatched as a single ordered batch. The global automation
// config gates the entire pass; a disabled switch or an out-of-window clock
// means no rule of either kind fires.
func (e *Engine) EvaluateReading(ctx context.Context, reading models.SensorReading) {
	cfg, err := e.store.GetAutomationConfig(ctx)
	if err != nil {
		e.log.Errorw("failed to load automation config, skipping pass", "err", err)
		return
	}
	now := e.clock.Now()
	if !automationActive(cfg, now) {
		return
	}

	thresholds, err := e.store.GetThresholdRules(ctx)
	if err != nil {
		e.log.Errorw("failed to load threshold rules, skipping pass", "err", err)
		return
	}
	scenarios, err := e.store.GetScenarioRules(ctx)
	if err != nil {
		e.log.Errorw("failed to load scenario rules, skipping pass", "err", err)
		return
	}

	decisions := EvaluateThresholds(reading, e.validThresholds(thresholds), cfg, now)
	decisions = append(decisions, EvaluateScenarios(reading, e.validScenarios(scenarios))...)
	e.dispatcher.DispatchBatch(ctx, decisions)
}

// validThresholds drops inert rules, logging each offender once.
func (e *Engine) validThresholds(rules []models.ThresholdRule) []models.ThresholdRule {
	out := rules[:0:0]
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			e.logBadRuleOnce(r.ID, err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// validScenarios drops inert scenarios, logging each offender once.
func (e *Engine) validScenarios(scenarios []models.ScenarioRule) []models.ScenarioRule {
	out := scenarios[:0:0]
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			e.logBadRuleOnce(s.ID, err)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) logBadRuleOnce(id string, err error) {
	e.badMu.Lock()
	seen := e.badRules[id]
	e.badRules[id] = true
	e.badMu.Unlock()
	if !seen {
		e.log.Warnw("ignoring inert rule", "rule", id, "err", err)
	}
}
