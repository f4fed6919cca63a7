package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesaa/alertdesk/internal/models"
)

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisPublisher(ctx, &redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}, "")
	assert.Error(t, err)
}

// TestRedisPublisher_RoundTrip runs against a live server when ALERTDESK_TEST_REDIS_ADDR is set.
func TestRedisPublisher_RoundTrip(t *testing.T) {
	addr := os.Getenv("ALERTDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ALERTDESK_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := NewRedisPublisher(ctx, &redis.Options{Addr: addr}, "alert_events_test")
	require.NoError(t, err)
	defer p.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	sub := client.Subscribe(ctx, "alert_events_test")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, models.Alert{ID: 7, Hostname: "web-01", Metric: "cpu", Value: 95}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alert_events_test", msg.Channel)
	assert.Contains(t, msg.Payload, `"hostname":"web-01"`)
	assert.Contains(t, msg.Payload, `"id":7`)
}
