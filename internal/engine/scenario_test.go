package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeauto/internal/models"
)

func hotAndDark() models.ScenarioRule {
	return models.ScenarioRule{
		ID:   "s1",
		Name: "hot and dark",
		Conditions: []models.ScenarioCondition{
			{Sensor: models.SensorTemperature, Op: models.OpAbove, Threshold: 30},
			{Sensor: models.SensorLight, Op: models.OpBelow, Threshold: 50},
		},
		Actions: []models.ScenarioAction{
			{Device: "fan", Command: models.CmdOn},
			{Device: "curtain", Command: models.CmdOpen},
		},
	}
}

func TestScenarioFiresWhenAllConditionsHold(t *testing.T) {
	decisions := EvaluateScenarios(reading(f64(32), nil, f64(40)), []models.ScenarioRule{hotAndDark()})

	require.Len(t, decisions, 2, "one decision per action")
	assert.Equal(t, "fan", decisions[0].Device)
	assert.Equal(t, models.CmdOn, decisions[0].Command)
	assert.Equal(t, "curtain", decisions[1].Device)
	assert.Equal(t, models.CmdOpen, decisions[1].Command)
	for _, d := range decisions {
		assert.Equal(t, models.SourceScenario, d.Source)
		assert.Equal(t, "hot and dark", d.RuleRef)
		require.NotNil(t, d.TriggerValue)
		assert.Equal(t, 32.0, *d.TriggerValue)
	}
}

func TestScenarioDoesNotFireWhenOneConditionFails(t *testing.T) {
	// Temperature holds, light does not.
	decisions := EvaluateScenarios(reading(f64(32), nil, f64(80)), []models.ScenarioRule{hotAndDark()})
	assert.Empty(t, decisions)

	// Light holds, temperature does not.
	decisions = EvaluateScenarios(reading(f64(25), nil, f64(40)), []models.ScenarioRule{hotAndDark()})
	assert.Empty(t, decisions)
}

func TestScenarioMissingMeasurementMeansNoMatch(t *testing.T) {
	// No light measurement in the reading: the scenario is non-matching, not an error.
	decisions := EvaluateScenarios(reading(f64(32), nil, nil), []models.ScenarioRule{hotAndDark()})
	assert.Empty(t, decisions)
}

func TestScenarioWithoutConditionsIsInert(t *testing.T) {
	sc := models.ScenarioRule{
		ID: "s2", Name: "broken",
		Actions: []models.ScenarioAction{{Device: "fan", Command: models.CmdOn}},
	}
	decisions := EvaluateScenarios(reading(f64(32), nil, f64(40)), []models.ScenarioRule{sc})
	assert.Empty(t, decisions)
}

func TestScenarioBoundaryIsExclusive(t *testing.T) {
	sc := models.ScenarioRule{
		ID: "s3", Name: "edge",
		Conditions: []models.ScenarioCondition{{Sensor: models.SensorTemperature, Op: models.OpAbove, Threshold: 30}},
		Actions:    []models.ScenarioAction{{Device: "fan", Command: models.CmdOn}},
	}
	assert.Empty(t, EvaluateScenarios(reading(f64(30), nil, nil), []models.ScenarioRule{sc}),
		"above means strictly greater")
	assert.Len(t, EvaluateScenarios(reading(f64(30.1), nil, nil), []models.ScenarioRule{sc}), 1)
}
