package messaging

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// GoRedisPubSub adapts a go-redis client to PubSubClient.
type GoRedisPubSub struct {
	client *redis.Client
}

// NewGoRedisPubSub wraps client.
func NewGoRedisPubSub(client *redis.Client) *GoRedisPubSub {
	return &GoRedisPubSub{client: client}
}

// Publish implements PubSubClient.
func (p *GoRedisPubSub) Publish(ctx context.Context, channel string, message string) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe implements PubSubClient. The returned channel closes when the
// subscription is closed.
func (p *GoRedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan RedisMessage, func() error, error) {
	sub := p.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, sub.Close, nil
}
