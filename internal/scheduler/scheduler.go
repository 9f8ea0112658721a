// Package scheduler fires schedule entries when the local wall clock reaches
// their "HH:MM". The small entry count makes a polling tick sufficient; no
// timer wheel needed.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"homeauto/internal/clock"
	"homeauto/internal/logger"
	"homeauto/internal/models"
)

// Store is the scheduler's view of the rule store. Deleting a fired one-shot
// entry is the only configuration mutation the engine performs.
type Store interface {
	GetScheduleEntries(ctx context.Context) ([]models.ScheduleEntry, error)
	DeleteScheduleEntry(ctx context.Context, id string) error
}

// Dispatcher applies a batch of decisions.
type Dispatcher interface {
	DispatchBatch(ctx context.Context, decisions []models.Decision)
}

// Scheduler polls the schedule store on a cron tick and dispatches matching
// entries. Evaluation is minute-grained: an entry fires at most once per
// matching minute regardless of the tick interval.
type Scheduler struct {
	cron     *cron.Cron
	store    Store
	dispatch Dispatcher
	clock    clock.Clock
	log      *logger.Logger

	mu        sync.Mutex
	lastFired map[string]string // entry id -> "2006-01-02 15:04" of last fire
}

// New creates a scheduler.
func New(store Store, dispatch Dispatcher, clk clock.Clock, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		store:     store,
		dispatch:  dispatch,
		clock:     clk,
		log:       log,
		lastFired: make(map[string]string),
	}
}

// Start begins ticking at the given interval.
func (s *Scheduler) Start(interval time.Duration) error {
	if interval < time.Second {
		interval = time.Second
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval.Seconds())), s.Tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infow("scheduler started", "interval", interval)
	return nil
}

// Stop halts the tick loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// Tick runs one scheduling pass. Exported so tests can drive it with a fixed
// clock.
func (s *Scheduler) Tick() {
	ctx := context.Background()
	now := s.clock.Now()
	minute := now.Format("15:04")
	day := now.Format("2006-01-02")
	minuteKey := day + " " + minute

	entries, err := s.store.GetScheduleEntries(ctx)
	if err != nil {
		s.log.Errorw("failed to load schedule entries, skipping tick", "err", err)
		return
	}

	var batch []models.Decision
	s.mu.Lock()
	for _, entry := range entries {
		if !entry.Enabled || entry.Time != minute {
			continue
		}
		if entry.Date != "" && entry.Date != day {
			continue
		}
		if !entry.Command.ValidFor(entry.Device) {
			s.log.Warnw("skipping schedule entry with invalid command", "entry", entry.ID, "device", entry.Device, "cmd", entry.Command)
			continue
		}
		if s.lastFired[entry.ID] == minuteKey {
			continue
		}
		s.lastFired[entry.ID] = minuteKey

		batch = append(batch, models.Decision{
			Device:  entry.Device,
			Command: entry.Command,
			Source:  models.SourceSchedule,
			RuleRef: entry.ID,
			Reason:  fmt.Sprintf("schedule %s at %s", entry.Repeat, entry.Time),
		})

		if entry.Repeat == models.RepeatOnce {
			if err := s.store.DeleteScheduleEntry(ctx, entry.ID); err != nil {
				s.log.Errorw("failed to consume one-shot schedule entry", "entry", entry.ID, "err", err)
			} else {
				delete(s.lastFired, entry.ID)
			}
		}
	}
	// Drop markers from past minutes so the map stays bounded by entry count.
	for id, key := range s.lastFired {
		if key != minuteKey {
			delete(s.lastFired, id)
		}
	}
	s.mu.Unlock()

	s.dispatch.DispatchBatch(ctx, batch)
}
