package engine

import (
	"time"

	"homeauto/internal/models"
)

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// automationActive reports whether the global switch and active window permit
// rule evaluation at now. It gates threshold and scenario evaluation alike.
func automationActive(cfg models.AutomationConfig, now time.Time) bool {
	return cfg.Enabled && withinWindow(now, cfg.ActiveFrom, cfg.ActiveTo)
}

// withinWindow compares the wall-clock minute of now against an inclusive
// "HH:MM" window. An empty bound is unrestricted in that direction. A window
// whose start is later than its end wraps past midnight (22:00..06:00).
// Malformed bounds count as absent; rule-level windows are validated before
// evaluation, so this only softens a bad global config.
func withinWindow(now time.Time, start, end string) bool {
	m := minuteOfDay(now)

	from := -1
	if start != "" {
		if v, err := models.ParseHHMM(start); err == nil {
			from = v
		}
	}
	to := -1
	if end != "" {
		if v, err := models.ParseHHMM(end); err == nil {
			to = v
		}
	}

	switch {
	case from < 0 && to < 0:
		return true
	case from < 0:
		return m <= to
	case to < 0:
		return m >= from
	case from <= to:
		return m >= from && m <= to
	default:
		return m >= from || m <= to
	}
}
