package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"homeauto/internal/models"
)

// GetThresholdRules fetches all threshold rules in declaration order.
func (d *DB) GetThresholdRules(ctx context.Context) ([]models.ThresholdRule, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, device, sensor_type, min_value, max_value, action_above_max, action_below_min, enabled,
		        COALESCE(date_filter, ''), COALESCE(time_start, ''), COALESCE(time_end, '')
		 FROM threshold_rules ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.ThresholdRule
	for rows.Next() {
		var r models.ThresholdRule
		if err := rows.Scan(&r.ID, &r.Device, &r.SensorType, &r.Min, &r.Max,
			&r.ActionAboveMax, &r.ActionBelowMin, &r.Enabled, &r.DateFilter, &r.TimeStart, &r.TimeEnd); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetScenarioRules fetches all scenarios in declaration order. Conditions and
// actions are stored as JSONB.
func (d *DB) GetScenarioRules(ctx context.Context) ([]models.ScenarioRule, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, name, conditions, actions FROM scenario_rules ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []models.ScenarioRule
	for rows.Next() {
		var (
			s          models.ScenarioRule
			conditions []byte
			actions    []byte
		)
		if err := rows.Scan(&s.ID, &s.Name, &conditions, &actions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(conditions, &s.Conditions); err != nil {
			return nil, fmt.Errorf("scenario %s conditions: %w", s.ID, err)
		}
		if err := json.Unmarshal(actions, &s.Actions); err != nil {
			return nil, fmt.Errorf("scenario %s actions: %w", s.ID, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, rows.Err()
}

// GetScheduleEntries fetches all schedule entries in declaration order.
func (d *DB) GetScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, device, command, fire_time, COALESCE(fire_date, ''), repeat, enabled
		 FROM schedule_entries ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.Device, &e.Command, &e.Time, &e.Date, &e.Repeat, &e.Enabled); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteScheduleEntry removes a fired one-shot entry.
func (d *DB) DeleteScheduleEntry(ctx context.Context, id string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM schedule_entries WHERE id = $1`, id)
	return err
}

// GetAutomationConfig returns the single global automation config row. A
// missing row means automation is disabled.
func (d *DB) GetAutomationConfig(ctx context.Context) (models.AutomationConfig, error) {
	var cfg models.AutomationConfig
	err := d.pool.QueryRow(ctx,
		`SELECT enabled, COALESCE(active_from, ''), COALESCE(active_to, '') FROM automation_config WHERE id = 1`).
		Scan(&cfg.Enabled, &cfg.ActiveFrom, &cfg.ActiveTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AutomationConfig{}, nil
	}
	if err != nil {
		return models.AutomationConfig{}, err
	}
	return cfg, nil
}

// Record appends one audit entry.
func (d *DB) Record(ctx context.Context, e models.AuditEntry) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO audit_log (id, rule_ref, source, device, command, trigger_value, context, fired_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.RuleRef, e.Source, e.Device, e.Command, e.TriggerValue, []byte(e.Context), e.FiredAt)
	return err
}

// RecentAuditEntries returns the newest entries, most recent first.
func (d *DB) RecentAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.pool.Query(ctx,
		`SELECT id, rule_ref, source, device, command, trigger_value, context, fired_at
		 FROM audit_log ORDER BY fired_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e   models.AuditEntry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.RuleRef, &e.Source, &e.Device, &e.Command, &e.TriggerValue, &raw, &e.FiredAt); err != nil {
			return nil, err
		}
		e.Context = json.RawMessage(raw)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertSensorReading appends one reading to the telemetry history.
func (d *DB) InsertSensorReading(ctx context.Context, r models.SensorReading) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO sensor_readings (device_id, temperature, humidity, light, observed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.DeviceID, r.Temperature, r.Humidity, r.Light, r.ObservedAt)
	return err
}

// DailyStats aggregates min/max/avg per measurement for one local calendar day.
func (d *DB) DailyStats(ctx context.Context, date string) (models.DailyStats, error) {
	stats := models.DailyStats{Date: date}
	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        MIN(temperature), MAX(temperature), AVG(temperature),
		        MIN(humidity),    MAX(humidity),    AVG(humidity),
		        MIN(light),       MAX(light),       AVG(light)
		 FROM sensor_readings WHERE observed_at::date = $1::date`, date).
		Scan(&stats.Samples,
			&stats.TempMin, &stats.TempMax, &stats.TempAvg,
			&stats.HumMin, &stats.HumMax, &stats.HumAvg,
			&stats.LuxMin, &stats.LuxMax, &stats.LuxAvg)
	if err != nil {
		return models.DailyStats{}, err
	}
	return stats, nil
}
