package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the redis pub/sub channel for change notifications
const DefaultChannel = "coretrack:realtime"

// RedisFanout relays messages between instances over redis pub/sub
type RedisFanout struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisFanout creates a fanout on channel; an empty channel uses DefaultChannel
func NewRedisFanout(client *redis.Client, channel string, logger *zap.Logger) *RedisFanout {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFanout{client: client, channel: channel, logger: logger}
}

// Publish sends msg to every subscribed instance, this one included
func (f *RedisFanout) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Run subscribes and hands each decoded message to deliver until ctx is done
func (f *RedisFanout) Run(ctx context.Context, deliver func(Message)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}
	f.logger.Info("Subscribed to realtime channel", zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				f.logger.Warn("Dropping malformed realtime message", zap.Error(err))
				continue
			}
			deliver(msg)
		}
	}
}
