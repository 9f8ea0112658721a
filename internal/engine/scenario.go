package engine

import (
	"fmt"

	"homeauto/internal/models"
)

// EvaluateScenarios checks every scenario's AND-predicate against the reading
// and emits one decision per action of each matching scenario. A condition
// referencing a measurement absent from the reading makes the scenario
// non-matching, not erroring. Scenarios carry no time or date gates.
func EvaluateScenarios(reading models.SensorReading, scenarios []models.ScenarioRule) []models.Decision {
	var out []models.Decision
	for _, sc := range scenarios {
		if len(sc.Conditions) == 0 {
			continue
		}
		matched := true
		var trigger *float64
		for _, cond := range sc.Conditions {
			value, ok := reading.Value(cond.Sensor)
			if !ok || !holds(value, cond) {
				matched = false
				break
			}
			if trigger == nil {
				v := value
				trigger = &v
			}
		}
		if !matched {
			continue
		}
		for _, action := range sc.Actions {
			out = append(out, models.Decision{
				Device:       action.Device,
				Command:      action.Command,
				Source:       models.SourceScenario,
				RuleRef:      sc.Name,
				Reason:       fmt.Sprintf("scenario %q matched", sc.Name),
				TriggerValue: trigger,
			})
		}
	}
	return out
}

func holds(value float64, cond models.ScenarioCondition) bool {
	switch cond.Op {
	case models.OpAbove:
		return value > cond.Threshold
	case models.OpBelow:
		return value < cond.Threshold
	}
	return false
}
