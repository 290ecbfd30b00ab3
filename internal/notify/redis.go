package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel used when none is configured.
const DefaultRedisChannel = "issuesync:notifications"

const redisPublishTimeout = 2 * time.Second

// RedisSink publishes notifications as JSON on a Redis pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisSink wraps an existing client.
func NewRedisSink(client *redis.Client, channel string, logger *slog.Logger) *RedisSink {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSink{client: client, channel: channel, logger: logger.With("component", "notify.redis")}
}

// DialRedis parses redisURL, connects and verifies the connection.
func DialRedis(ctx context.Context, redisURL, channel string, logger *slog.Logger) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisSink(client, channel, logger), nil
}

// Channel returns the pub/sub channel name.
func (s *RedisSink) Channel() string {
	return s.channel
}

func (s *RedisSink) Notify(ctx context.Context, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("encode notification", "id", n.ID, "error", err)
		return
	}
	// Delivery must not be cut short by the caller's request context.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisPublishTimeout)
	defer cancel()
	if err := s.client.Publish(pubCtx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("publish notification", "id", n.ID, "channel", s.channel, "error", err)
	}
}

// Close closes the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
