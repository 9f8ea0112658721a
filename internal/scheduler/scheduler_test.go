package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeauto/internal/clock"
	"homeauto/internal/logger"
	"homeauto/internal/models"
)

type fakeStore struct {
	mu      sync.Mutex
	entries []models.ScheduleEntry
	deleted []string
}

func (f *fakeStore) GetScheduleEntries(context.Context) ([]models.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ScheduleEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeStore) DeleteScheduleEntry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	batches [][]models.Decision
}

func (f *fakeDispatcher) DispatchBatch(_ context.Context, decisions []models.Decision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(decisions) > 0 {
		f.batches = append(f.batches, decisions)
	}
}

func (f *fakeDispatcher) fired() []models.Decision {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Decision
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func TestOnceEntryFiresAndIsConsumed(t *testing.T) {
	store := &fakeStore{entries: []models.ScheduleEntry{
		{ID: "e1", Device: "led1", Command: models.CmdOn, Time: "07:00", Repeat: models.RepeatOnce, Enabled: true},
	}}
	disp := &fakeDispatcher{}
	clk := clock.At(2026, time.March, 10, "07:00")
	s := New(store, disp, clk, logger.Nop())

	s.Tick()

	fired := disp.fired()
	require.Len(t, fired, 1)
	assert.Equal(t, "led1", fired[0].Device)
	assert.Equal(t, models.CmdOn, fired[0].Command)
	assert.Equal(t, models.SourceSchedule, fired[0].Source)
	assert.Equal(t, []string{"e1"}, store.deleted)

	// Next tick, same minute: the entry is gone from the store.
	s.Tick()
	assert.Len(t, disp.fired(), 1)

	// Same wall time the following day: still gone.
	clk.Set(clock.At(2026, time.March, 11, "07:00").Now())
	s.Tick()
	assert.Len(t, disp.fired(), 1)
}

func TestDailyEntryFiresOncePerMatchingMinute(t *testing.T) {
	store := &fakeStore{entries: []models.ScheduleEntry{
		{ID: "e1", Device: "fan", Command: models.CmdOff, Time: "22:30", Repeat: models.RepeatDaily, Enabled: true},
	}}
	disp := &fakeDispatcher{}
	clk := clock.At(2026, time.March, 10, "22:30")
	s := New(store, disp, clk, logger.Nop())

	// Several ticks within the same minute fire exactly once.
	s.Tick()
	clk.Set(clk.Now().Add(20 * time.Second))
	s.Tick()
	clk.Set(clk.Now().Add(20 * time.Second))
	s.Tick()
	assert.Len(t, disp.fired(), 1)
	assert.Empty(t, store.deleted, "daily entries are never consumed")

	// The next day the entry is eligible again.
	clk.Set(clock.At(2026, time.March, 11, "22:30").Now())
	s.Tick()
	assert.Len(t, disp.fired(), 2)
}

func TestEntryOutsideItsMinuteDoesNotFire(t *testing.T) {
	store := &fakeStore{entries: []models.ScheduleEntry{
		{ID: "e1", Device: "led1", Command: models.CmdOn, Time: "07:00", Repeat: models.RepeatDaily, Enabled: true},
	}}
	disp := &fakeDispatcher{}
	s := New(store, disp, clock.At(2026, time.March, 10, "07:01"), logger.Nop())

	s.Tick()
	assert.Empty(t, disp.fired())
}

func TestDisabledAndDateGatedEntries(t *testing.T) {
	store := &fakeStore{entries: []models.ScheduleEntry{
		{ID: "off", Device: "led1", Command: models.CmdOn, Time: "07:00", Repeat: models.RepeatDaily, Enabled: false},
		{ID: "wrongDay", Device: "led2", Command: models.CmdOn, Time: "07:00", Date: "2026-03-11", Repeat: models.RepeatOnce, Enabled: true},
		{ID: "rightDay", Device: "led3", Command: models.CmdOn, Time: "07:00", Date: "2026-03-10", Repeat: models.RepeatOnce, Enabled: true},
	}}
	disp := &fakeDispatcher{}
	s := New(store, disp, clock.At(2026, time.March, 10, "07:00"), logger.Nop())

	s.Tick()

	fired := disp.fired()
	require.Len(t, fired, 1)
	assert.Equal(t, "led3", fired[0].Device)
	assert.Equal(t, []string{"rightDay"}, store.deleted)
}

func TestInvalidCommandEntryIsSkipped(t *testing.T) {
	store := &fakeStore{entries: []models.ScheduleEntry{
		{ID: "bad", Device: "curtain", Command: models.CmdOn, Time: "07:00", Repeat: models.RepeatDaily, Enabled: true},
	}}
	disp := &fakeDispatcher{}
	s := New(store, disp, clock.At(2026, time.March, 10, "07:00"), logger.Nop())

	s.Tick()
	assert.Empty(t, disp.fired(), "ON is not a curtain command")
}
