// Package realtime pushes dashboard events to connected staff clients.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EventNotificationCreated is the event name dashboards listen for.
const EventNotificationCreated = "notificationCreated"

// Event is the envelope published on the channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Publisher broadcasts events.  Having no subscribers is not an error.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher broadcasts over a Redis Pub/Sub channel that the
// websocket gateway subscribes to.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher returns a publisher on channel.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = "notifications"
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal realtime event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}
