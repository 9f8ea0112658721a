package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SensorType identifies one of the environmental measurements carried by a reading.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
	SensorLight       SensorType = "light"
)

// Command is an actuation command sent to a device.
type Command string

const (
	CmdOn    Command = "ON"
	CmdOff   Command = "OFF"
	CmdOpen  Command = "OPEN"
	CmdClose Command = "CLOSE"
	CmdStop  Command = "STOP"
)

// DeviceState is the last known actuator state of a device. The vocabulary is
// identical to Command: the state implied by a successfully applied command is
// the command itself.
type DeviceState string

// DeviceClass splits the device fleet into on/off actuators and the tri-state
// curtain motor.
type DeviceClass int

const (
	ClassUnknown DeviceClass = iota
	ClassBinary
	ClassTriState
)

// ClassOf returns the device class for a known device identifier.
func ClassOf(device string) DeviceClass {
	switch device {
	case "led1", "led2", "led3", "led4", "fan":
		return ClassBinary
	case "curtain":
		return ClassTriState
	}
	return ClassUnknown
}

// ValidFor reports whether the command is part of the device's vocabulary.
// Validation happens at configuration load, not at dispatch time.
func (c Command) ValidFor(device string) bool {
	switch ClassOf(device) {
	case ClassBinary:
		return c == CmdOn || c == CmdOff
	case ClassTriState:
		return c == CmdOpen || c == CmdClose || c == CmdStop
	}
	return false
}

// ImpliedState is the device state a command leaves behind once applied.
func (c Command) ImpliedState() DeviceState {
	return DeviceState(c)
}

// SensorReading is one immutable telemetry event. Measurement fields are
// pointers so a reading may carry any subset of them.
type SensorReading struct {
	DeviceID    string    `json:"deviceId"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Light       *float64  `json:"light,omitempty"`
	ObservedAt  time.Time `json:"timestamp"`
}

// Value returns the measurement for the given sensor type, if present.
func (r SensorReading) Value(t SensorType) (float64, bool) {
	var p *float64
	switch t {
	case SensorTemperature:
		p = r.Temperature
	case SensorHumidity:
		p = r.Humidity
	case SensorLight:
		p = r.Light
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Empty reports whether the reading carries no measurement at all.
func (r SensorReading) Empty() bool {
	return r.Temperature == nil && r.Humidity == nil && r.Light == nil
}

// Curtain mode values as reported on the status topic.
const (
	CurtainModeStop  = 0
	CurtainModeClose = 1
	CurtainModeOpen  = 2
)

// StatusEvent is an actuator status report from the controller. Fields are
// pointers so partial reports only overwrite what they carry.
type StatusEvent struct {
	DeviceID    string `json:"deviceId"`
	Led1        *bool  `json:"led1,omitempty"`
	Led2        *bool  `json:"led2,omitempty"`
	Led3        *bool  `json:"led3,omitempty"`
	Led4        *bool  `json:"led4,omitempty"`
	Fan         *bool  `json:"fan,omitempty"`
	CurtainMode *int   `json:"curtainMode,omitempty"`
}

// States flattens the event into per-device state values.
func (ev StatusEvent) States() map[string]DeviceState {
	out := make(map[string]DeviceState)
	bin := func(device string, v *bool) {
		if v == nil {
			return
		}
		if *v {
			out[device] = DeviceState(CmdOn)
		} else {
			out[device] = DeviceState(CmdOff)
		}
	}
	bin("led1", ev.Led1)
	bin("led2", ev.Led2)
	bin("led3", ev.Led3)
	bin("led4", ev.Led4)
	bin("fan", ev.Fan)
	if ev.CurtainMode != nil {
		switch *ev.CurtainMode {
		case CurtainModeClose:
			out["curtain"] = DeviceState(CmdClose)
		case CurtainModeOpen:
			out["curtain"] = DeviceState(CmdOpen)
		default:
			out["curtain"] = DeviceState(CmdStop)
		}
	}
	return out
}

// ThresholdRule is a per-device min/max rule with optional date and
// time-of-day gating. Read-only to the engine.
type ThresholdRule struct {
	ID             string     `json:"id"`
	Device         string     `json:"device"`
	SensorType     SensorType `json:"sensorType"`
	Min            *float64   `json:"min,omitempty"`
	Max            *float64   `json:"max,omitempty"`
	ActionAboveMax Command    `json:"actionAboveMax"`
	ActionBelowMin Command    `json:"actionBelowMin"`
	Enabled        bool       `json:"enabled"`
	DateFilter     string     `json:"dateFilter,omitempty"` // "2006-01-02", empty = no filter
	TimeStart      string     `json:"timeStart,omitempty"`  // "HH:MM", empty = no window
	TimeEnd        string     `json:"timeEnd,omitempty"`
}

// Validate reports why the rule can never fire, or nil if it is well formed.
// A rule failing validation is treated as inert, not rejected.
func (r ThresholdRule) Validate() error {
	if r.Min == nil && r.Max == nil {
		return fmt.Errorf("threshold rule %s has neither min nor max", r.ID)
	}
	if r.Max != nil && !r.ActionAboveMax.ValidFor(r.Device) {
		return fmt.Errorf("threshold rule %s: command %q invalid for device %q", r.ID, r.ActionAboveMax, r.Device)
	}
	if r.Min != nil && !r.ActionBelowMin.ValidFor(r.Device) {
		return fmt.Errorf("threshold rule %s: command %q invalid for device %q", r.ID, r.ActionBelowMin, r.Device)
	}
	// A one-sided window is legal; only non-empty bounds must parse.
	if r.TimeStart != "" {
		if _, err := ParseHHMM(r.TimeStart); err != nil {
			return fmt.Errorf("threshold rule %s: %w", r.ID, err)
		}
	}
	if r.TimeEnd != "" {
		if _, err := ParseHHMM(r.TimeEnd); err != nil {
			return fmt.Errorf("threshold rule %s: %w", r.ID, err)
		}
	}
	return nil
}

// Scenario condition operators.
const (
	OpAbove = "above"
	OpBelow = "below"
)

// ScenarioCondition is one inequality of a scenario's AND-predicate.
type ScenarioCondition struct {
	Sensor    SensorType `json:"sensor"`
	Op        string     `json:"op"` // "above" or "below"
	Threshold float64    `json:"threshold"`
}

// ScenarioAction is one device command fired by a matching scenario.
type ScenarioAction struct {
	Device  string  `json:"device"`
	Command Command `json:"cmd"`
}

// ScenarioRule is a compound multi-sensor predicate firing a list of actions.
// All conditions must hold on the same reading.
type ScenarioRule struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Conditions []ScenarioCondition `json:"conditions"`
	Actions    []ScenarioAction    `json:"actions"`
}

// Validate reports why the scenario can never fire, or nil.
func (s ScenarioRule) Validate() error {
	if len(s.Conditions) == 0 {
		return fmt.Errorf("scenario %s (%s) has no conditions", s.ID, s.Name)
	}
	if len(s.Actions) == 0 {
		return fmt.Errorf("scenario %s (%s) has no actions", s.ID, s.Name)
	}
	for _, c := range s.Conditions {
		if c.Op != OpAbove && c.Op != OpBelow {
			return fmt.Errorf("scenario %s: unknown operator %q", s.ID, c.Op)
		}
	}
	for _, a := range s.Actions {
		if !a.Command.ValidFor(a.Device) {
			return fmt.Errorf("scenario %s: command %q invalid for device %q", s.ID, a.Command, a.Device)
		}
	}
	return nil
}

// Schedule repeat modes.
const (
	RepeatOnce  = "once"
	RepeatDaily = "daily"
)

// ScheduleEntry is a wall-clock triggered device action. "once" entries are
// deleted by the scheduler after firing.
type ScheduleEntry struct {
	ID      string  `json:"id"`
	Device  string  `json:"device"`
	Command Command `json:"cmd"`
	Time    string  `json:"time"`           // "HH:MM" local
	Date    string  `json:"date,omitempty"` // "2006-01-02", empty = any day
	Repeat  string  `json:"repeat"`         // "once" or "daily"
	Enabled bool    `json:"enabled"`
}

// AutomationConfig gates threshold and scenario evaluation globally.
// Empty window bounds mean unrestricted in that direction.
type AutomationConfig struct {
	Enabled    bool   `json:"enabled"`
	ActiveFrom string `json:"activeFrom,omitempty"` // "HH:MM"
	ActiveTo   string `json:"activeTo,omitempty"`
}

// DecisionSource orders decisions when a batch is applied: thresholds first,
// then scenarios, then schedules.
type DecisionSource int

const (
	SourceThreshold DecisionSource = iota
	SourceScenario
	SourceSchedule
)

func (s DecisionSource) String() string {
	switch s {
	case SourceThreshold:
		return "threshold"
	case SourceScenario:
		return "scenario"
	case SourceSchedule:
		return "schedule"
	}
	return "unknown"
}

// Decision is an engine-internal proposal to actuate a device, prior to
// dispatch.
type Decision struct {
	Device       string
	Command      Command
	Source       DecisionSource
	RuleRef      string // rule id or scenario/schedule name for the audit trail
	Reason       string
	TriggerValue *float64
}

// AuditEntry records one automation-triggered action and the telemetry that
// caused it. Append-only.
type AuditEntry struct {
	ID           string          `json:"id"`
	RuleRef      string          `json:"rule"`
	Source       string          `json:"source"`
	Device       string          `json:"device"`
	Command      Command         `json:"action"`
	TriggerValue *float64        `json:"value,omitempty"`
	Context      json.RawMessage `json:"context,omitempty"`
	FiredAt      time.Time       `json:"firedAt"`
}

// DailyStats is a per-day min/max/avg aggregate over the reading history.
type DailyStats struct {
	Date    string   `json:"date"`
	Samples int      `json:"samples"`
	TempMin *float64 `json:"tempMin,omitempty"`
	TempMax *float64 `json:"tempMax,omitempty"`
	TempAvg *float64 `json:"tempAvg,omitempty"`
	HumMin  *float64 `json:"humMin,omitempty"`
	HumMax  *float64 `json:"humMax,omitempty"`
	HumAvg  *float64 `json:"humAvg,omitempty"`
	LuxMin  *float64 `json:"lightMin,omitempty"`
	LuxMax  *float64 `json:"lightMax,omitempty"`
	LuxAvg  *float64 `json:"lightAvg,omitempty"`
}

// ParseHHMM converts a "HH:MM" string to minutes after midnight.
func ParseHHMM(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return hour*60 + minute, nil
}
