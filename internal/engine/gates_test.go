package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"homeauto/internal/clock"
)

func TestWithinWindow(t *testing.T) {
	at := func(hhmm string) time.Time {
		return clock.At(2026, time.March, 10, hhmm).Now()
	}

	cases := []struct {
		name       string
		now        string
		start, end string
		want       bool
	}{
		{"no bounds", "12:00", "", "", true},
		{"inside", "12:00", "09:00", "17:00", true},
		{"inclusive start", "09:00", "09:00", "17:00", true},
		{"inclusive end", "17:00", "09:00", "17:00", true},
		{"before", "08:59", "09:00", "17:00", false},
		{"after", "20:00", "09:00", "17:00", false},
		{"only lower bound", "23:00", "09:00", "", true},
		{"only lower bound, before", "08:00", "09:00", "", false},
		{"only upper bound", "08:00", "", "17:00", true},
		{"only upper bound, after", "18:00", "", "17:00", false},
		{"overnight inside evening", "23:00", "22:00", "06:00", true},
		{"overnight inside morning", "05:00", "22:00", "06:00", true},
		{"overnight outside", "12:00", "22:00", "06:00", false},
		{"malformed bound treated as absent", "12:00", "garbage", "17:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, withinWindow(at(tc.now), tc.start, tc.end))
		})
	}
}
