// Package events publishes saved alerts to Redis pub/sub so dashboards and
// notifiers can follow new alerts without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vesaa/alertdesk/internal/models"
)

// DefaultChannel is the pub/sub channel alerts are published on.
const DefaultChannel = "alert_events"

// RedisPublisher publishes each alert as a JSON message.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to Redis and verifies the connection with PING.
func NewRedisPublisher(ctx context.Context, opts *redis.Options, channel string) (*RedisPublisher, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish sends a on the configured channel.
func (p *RedisPublisher) Publish(ctx context.Context, a models.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
