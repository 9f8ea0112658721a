// Package notify publishes dispatched decisions on a redis pub/sub channel so
// an external dashboard can render them live. Delivery is fire-and-forget and
// never blocks the engine.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"homeauto/internal/logger"
)

const publishTimeout = 2 * time.Second

// Bus is a redis-backed notification bus.
type Bus struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewBus creates a bus publishing on the given channel.
func NewBus(client *redis.Client, channel string, log *logger.Logger) *Bus {
	return &Bus{client: client, channel: channel, log: log}
}

// Notify publishes the event asynchronously. Failures are logged at debug
// level only; a missing dashboard must not be visible to automation.
func (b *Bus) Notify(event string, payload any) {
	go func() {
		msg, err := json.Marshal(map[string]any{"event": event, "payload": payload})
		if err != nil {
			b.log.Debugw("notify marshal failed", "event", event, "err", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
			b.log.Debugw("notify publish failed", "event", event, "err", err)
		}
	}()
}
