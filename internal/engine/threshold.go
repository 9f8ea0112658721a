package engine

import (
	"fmt"
	"time"

	"homeauto/internal/models"
)

// EvaluateThresholds applies every enabled threshold rule to the reading and
// returns the resulting decisions in rule-declaration order. The evaluator has
// no side effects; suppressing redundant re-fires against current device state
// is the dispatcher's job.
//
// Callers are expected to have filtered rules through ThresholdRule.Validate;
// a rule with neither bound simply never produces a decision here.
func EvaluateThresholds(reading models.SensorReading, rules []models.ThresholdRule, cfg models.AutomationConfig, now time.Time) []models.Decision {
	if !automationActive(cfg, now) {
		return nil
	}

	today := now.Format("2006-01-02")
	var out []models.Decision
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		value, ok := reading.Value(rule.SensorType)
		if !ok {
			continue
		}
		if rule.DateFilter != "" && rule.DateFilter != today {
			continue
		}
		if (rule.TimeStart != "" || rule.TimeEnd != "") && !withinWindow(now, rule.TimeStart, rule.TimeEnd) {
			continue
		}

		// Max is checked before min; that is the tie-break for overlapping bounds.
		v := value
		switch {
		case rule.Max != nil && value > *rule.Max:
			out = append(out, models.Decision{
				Device:       rule.Device,
				Command:      rule.ActionAboveMax,
				Source:       models.SourceThreshold,
				RuleRef:      rule.ID,
				Reason:       fmt.Sprintf("%s %.2f above max %.2f", rule.SensorType, value, *rule.Max),
				TriggerValue: &v,
			})
		case rule.Min != nil && value < *rule.Min:
			out = append(out, models.Decision{
				Device:       rule.Device,
				Command:      rule.ActionBelowMin,
				Source:       models.SourceThreshold,
				RuleRef:      rule.ID,
				Reason:       fmt.Sprintf("%s %.2f below min %.2f", rule.SensorType, value, *rule.Min),
				TriggerValue: &v,
			})
		}
	}
	return out
}
