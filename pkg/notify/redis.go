package notify

import (
	"context"
	"fmt"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBroker publishes over Redis pub/sub. The client is owned by the caller.
type RedisBroker struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

func NewRedisBroker(client *redis.Client, channel string, log *logger.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, evt Event) error {
	data, err := evt.Marshal()
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Relay(ctx context.Context, sink Publisher) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// wait for the subscription confirmation so failures surface here
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info("Redis relay started", "channel", b.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			evt, err := UnmarshalEvent([]byte(msg.Payload))
			if err != nil {
				b.log.Warn("Dropping malformed relayed event", "channel", msg.Channel, "error", err)
				continue
			}
			if err := sink.Publish(ctx, evt); err != nil {
				b.log.Warn("Failed to relay event", "event", evt.Name, "error", err)
			}
		}
	}
}

func (b *RedisBroker) Close() error {
	return nil
}
