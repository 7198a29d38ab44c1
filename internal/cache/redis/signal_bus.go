package redis

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/redis/go-redis/v9"
)

// busBuffer is how many received messages may queue before the reader
// blocks the Redis connection.
const busBuffer = 128

// SignalBus implements domain.SignalBus on Redis Pub/Sub. It carries the
// purchase, wallet and toast channels and refuses any other name.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends payload to one dashboard channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if !domain.KnownChannel(channel) {
		return fmt.Errorf("redis: publish %s: %w", channel, domain.ErrUnknownChannel)
	}
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens on the given channels, or on every dashboard channel
// when none are named, over a single Redis connection. Each message keeps
// the channel it arrived on. The returned channel is closed once ctx is done.
func (sb *SignalBus) Subscribe(ctx context.Context, channels ...string) (<-chan domain.BusMessage, error) {
	if len(channels) == 0 {
		channels = domain.BusChannels
	}
	for _, ch := range channels {
		if !domain.KnownChannel(ch) {
			return nil, fmt.Errorf("redis: subscribe %s: %w", ch, domain.ErrUnknownChannel)
		}
	}

	pubsub := sb.rdb.Subscribe(ctx, channels...)
	// One confirmation arrives per channel.
	for range channels {
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("redis: subscribe %v: %w", channels, err)
		}
	}

	out := make(chan domain.BusMessage, busBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- domain.BusMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var _ domain.SignalBus = (*SignalBus)(nil)
