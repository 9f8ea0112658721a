package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeauto/internal/cache"
	"homeauto/internal/clock"
	"homeauto/internal/logger"
	"homeauto/internal/models"
)

type fakeRuleStore struct {
	thresholds []models.ThresholdRule
	scenarios  []models.ScenarioRule
	cfg        models.AutomationConfig
}

func (f *fakeRuleStore) GetThresholdRules(context.Context) ([]models.ThresholdRule, error) {
	return f.thresholds, nil
}
func (f *fakeRuleStore) GetScenarioRules(context.Context) ([]models.ScenarioRule, error) {
	return f.scenarios, nil
}
func (f *fakeRuleStore) GetAutomationConfig(context.Context) (models.AutomationConfig, error) {
	return f.cfg, nil
}

func TestEvaluatePassDispatchesOnceThenSuppresses(t *testing.T) {
	store := &fakeRuleStore{
		thresholds: []models.ThresholdRule{{
			ID: "r1", Device: "fan", SensorType: models.SensorTemperature,
			Max: f64(30), ActionAboveMax: models.CmdOn, Enabled: true,
		}},
		cfg: models.AutomationConfig{Enabled: true},
	}
	sink := &fakeSink{}
	audit := &fakeAudit{}
	c := cache.New()
	c.SetState("fan", models.DeviceState(models.CmdOff))
	clk := clock.At(2026, time.March, 10, "12:00")
	d := NewDispatcher(sink, c, audit, nil, clk, logger.Nop(), "cmd/", 0)
	eng := NewEngine(nil, c, store, nil, d, clk, logger.Nop(), "home/sensors", "home/status")

	r := models.SensorReading{DeviceID: "esp32", Temperature: f64(32), Humidity: f64(50)}
	c.Ingest(r)
	eng.EvaluateReading(context.Background(), r)

	require.Len(t, sink.published, 1)
	assert.Equal(t, publishCall{topic: "cmd/fan", payload: "ON"}, sink.published[0])
	require.Len(t, audit.entries, 1)
	require.NotNil(t, audit.entries[0].TriggerValue)
	assert.Equal(t, 32.0, *audit.entries[0].TriggerValue)

	// The identical reading re-fires the rule, but the device already holds
	// the target state so the dispatcher suppresses it.
	c.Ingest(r)
	eng.EvaluateReading(context.Background(), r)

	assert.Len(t, sink.published, 1, "no second publish")
	assert.Len(t, audit.entries, 1, "no second audit entry")
}

func TestEvaluatePassFiltersInertRules(t *testing.T) {
	store := &fakeRuleStore{
		thresholds: []models.ThresholdRule{
			{ID: "noBounds", Device: "fan", SensorType: models.SensorTemperature, Enabled: true},
			{ID: "wrongCmd", Device: "curtain", SensorType: models.SensorTemperature, Max: f64(30), ActionAboveMax: models.CmdOn, Enabled: true},
		},
		scenarios: []models.ScenarioRule{
			{ID: "noCond", Name: "empty", Actions: []models.ScenarioAction{{Device: "fan", Command: models.CmdOn}}},
		},
		cfg: models.AutomationConfig{Enabled: true},
	}
	sink := &fakeSink{}
	c := cache.New()
	clk := clock.At(2026, time.March, 10, "12:00")
	d := NewDispatcher(sink, c, &fakeAudit{}, nil, clk, logger.Nop(), "cmd/", 0)
	eng := NewEngine(nil, c, store, nil, d, clk, logger.Nop(), "home/sensors", "home/status")

	r := models.SensorReading{Temperature: f64(99)}
	eng.EvaluateReading(context.Background(), r)

	assert.Empty(t, sink.published, "inert rules never fire")
}

func TestEvaluatePassGloballyGatesScenarios(t *testing.T) {
	hotScenario := []models.ScenarioRule{{
		ID: "s1", Name: "hot",
		Conditions: []models.ScenarioCondition{{Sensor: models.SensorTemperature, Op: models.OpAbove, Threshold: 30}},
		Actions:    []models.ScenarioAction{{Device: "fan", Command: models.CmdOn}},
	}}

	tests := []struct {
		name string
		cfg  models.AutomationConfig
		at   string
	}{
		{"disabled switch", models.AutomationConfig{Enabled: false}, "12:00"},
		{"outside active window", models.AutomationConfig{Enabled: true, ActiveFrom: "09:00", ActiveTo: "17:00"}, "20:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeRuleStore{scenarios: hotScenario, cfg: tt.cfg}
			sink := &fakeSink{}
			c := cache.New()
			clk := clock.At(2026, time.March, 10, tt.at)
			d := NewDispatcher(sink, c, &fakeAudit{}, nil, clk, logger.Nop(), "cmd/", 0)
			eng := NewEngine(nil, c, store, nil, d, clk, logger.Nop(), "home/sensors", "home/status")

			eng.EvaluateReading(context.Background(), models.SensorReading{Temperature: f64(32)})

			assert.Empty(t, sink.published, "scenario must not fire while automation is inactive")
		})
	}
}

func TestEvaluatePassCombinesThresholdAndScenarioDecisions(t *testing.T) {
	store := &fakeRuleStore{
		thresholds: []models.ThresholdRule{{
			ID: "r1", Device: "fan", SensorType: models.SensorTemperature,
			Max: f64(30), ActionAboveMax: models.CmdOn, Enabled: true,
		}},
		scenarios: []models.ScenarioRule{{
			ID: "s1", Name: "hot",
			Conditions: []models.ScenarioCondition{{Sensor: models.SensorTemperature, Op: models.OpAbove, Threshold: 30}},
			Actions:    []models.ScenarioAction{{Device: "curtain", Command: models.CmdClose}},
		}},
		cfg: models.AutomationConfig{Enabled: true},
	}
	sink := &fakeSink{}
	c := cache.New()
	clk := clock.At(2026, time.March, 10, "12:00")
	d := NewDispatcher(sink, c, &fakeAudit{}, nil, clk, logger.Nop(), "cmd/", 0)
	eng := NewEngine(nil, c, store, nil, d, clk, logger.Nop(), "home/sensors", "home/status")

	eng.EvaluateReading(context.Background(), models.SensorReading{Temperature: f64(32)})

	require.Len(t, sink.published, 2)
	assert.Equal(t, "cmd/fan", sink.published[0].topic, "threshold decisions apply before scenario decisions")
	assert.Equal(t, "cmd/curtain", sink.published[1].topic)
}
