package clock

import "time"

// Clock abstracts wall-clock access so evaluation is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New returns a clock backed by time.Now.
func New() Clock {
	return systemClock{}
}

// Fixed is a test clock that always returns T.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Set moves the fixed clock to t.
func (f *Fixed) Set(t time.Time) { f.T = t }

// At builds a fixed clock from a local date and "HH:MM" wall time. Panics on a
// malformed literal, which keeps test setup terse.
func At(year int, month time.Month, day int, hhmm string) *Fixed {
	t, err := time.ParseInLocation("15:04", hhmm, time.Local)
	if err != nil {
		panic(err)
	}
	return &Fixed{T: time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, time.Local)}
}
