package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"homeauto/internal/cache"
	"homeauto/internal/clock"
	"homeauto/internal/logger"
	"homeauto/internal/metrics"
	"homeauto/internal/models"
)

// Publisher sends a command to the message sink.
type Publisher interface {
	Publish(topic, payload string) error
}

// AuditRecorder persists audit entries. Failures must not block dispatch.
type AuditRecorder interface {
	Record(ctx context.Context, e models.AuditEntry) error
}

// Notifier forwards dispatched decisions to an external consumer,
// fire-and-forget.
type Notifier interface {
	Notify(event string, payload any)
}

// Dispatcher is the single choke point turning decisions into published
// commands. It serializes concurrent batches, suppresses commands whose target
// state is already current, updates the cached device state optimistically and
// writes the audit trail.
type Dispatcher struct {
	mu          sync.Mutex
	sink        Publisher
	cache       *cache.Cache
	audit       AuditRecorder
	notifier    Notifier
	clock       clock.Clock
	log         *logger.Logger
	topicPrefix string
	maxRetries  uint64
}

// NewDispatcher wires a dispatcher. notifier may be nil to disable
// notifications; it must be a nil interface value, not a typed-nil pointer to
// a concrete implementation, or dispatch will call Notify on a nil receiver.
func NewDispatcher(sink Publisher, c *cache.Cache, audit AuditRecorder, notifier Notifier, clk clock.Clock, log *logger.Logger, topicPrefix string, maxRetries int) *Dispatcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Dispatcher{
		sink:        sink,
		cache:       c,
		audit:       audit,
		notifier:    notifier,
		clock:       clk,
		log:         log,
		topicPrefix: topicPrefix,
		maxRetries:  uint64(maxRetries),
	}
}

// Topic returns the command topic for a device.
func (d *Dispatcher) Topic(device string) string {
	return d.topicPrefix + device
}

// DispatchBatch applies one evaluation pass worth of decisions in
// deterministic order: thresholds, then scenarios, then schedules, each in
// declaration order. A failed publish is logged and does not stop the batch.
func (d *Dispatcher) DispatchBatch(ctx context.Context, decisions []models.Decision) {
	if len(decisions) == 0 {
		return
	}
	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].Source < decisions[j].Source
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dec := range decisions {
		if err := d.dispatch(ctx, dec); err != nil {
			d.log.Errorw("dispatch failed", "device", dec.Device, "command", dec.Command, "rule", dec.RuleRef, "err", err)
		}
	}
}

// dispatch handles one decision. Caller holds d.mu.
func (d *Dispatcher) dispatch(ctx context.Context, dec models.Decision) error {
	metrics.IncDecision(dec.Source.String())

	target := dec.Command.ImpliedState()
	if current, ok := d.cache.State(dec.Device); ok && current == target {
		metrics.IncSuppressed()
		d.log.Debugw("suppressed, device already in target state",
			"device", dec.Device, "command", dec.Command, "rule", dec.RuleRef)
		return nil
	}

	topic := d.Topic(dec.Device)
	publish := func() error {
		return d.sink.Publish(topic, string(dec.Command))
	}
	if err := backoff.Retry(publish, backoff.WithMaxRetries(newPublishBackOff(), d.maxRetries)); err != nil {
		metrics.IncPublishFailure()
		return fmt.Errorf("publish %s to %s: %w", dec.Command, topic, err)
	}

	metrics.IncDispatched()
	d.cache.SetState(dec.Device, target)
	d.cache.SetLastAction(fmt.Sprintf("%s %s (%s)", dec.Device, dec.Command, dec.RuleRef))
	d.log.Infow("command dispatched",
		"device", dec.Device, "command", dec.Command, "source", dec.Source.String(), "rule", dec.RuleRef, "reason", dec.Reason)

	entry := models.AuditEntry{
		ID:           uuid.NewString(),
		RuleRef:      dec.RuleRef,
		Source:       dec.Source.String(),
		Device:       dec.Device,
		Command:      dec.Command,
		TriggerValue: dec.TriggerValue,
		Context:      d.contextSnapshot(),
		FiredAt:      d.clock.Now(),
	}
	if err := d.audit.Record(ctx, entry); err != nil {
		// Audit failure never affects the dispatch outcome.
		metrics.IncAuditFailure()
		d.log.Warnw("audit write failed", "rule", dec.RuleRef, "err", err)
	}

	if d.notifier != nil {
		d.notifier.Notify("automation.action", entry)
	}
	return nil
}

// contextSnapshot captures the telemetry the decision was made against.
func (d *Dispatcher) contextSnapshot() json.RawMessage {
	reading, ok := d.cache.Latest()
	if !ok {
		return nil
	}
	raw, err := json.Marshal(reading)
	if err != nil {
		return nil
	}
	return raw
}

func newPublishBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	return b
}
