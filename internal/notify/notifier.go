package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "agentboard:updates"

// Local signals the subscribers of one process.
type Local struct {
	hub *Hub
}

func NewLocal(hub *Hub) *Local {
	return &Local{hub: hub}
}

func (l *Local) Notify(ctx context.Context) error {
	l.hub.Broadcast(ctx)
	return nil
}

// RedisRelay publishes the token on a Redis channel. Every process runs Run
// to relay what it receives to its own hub, so all replicas fan out.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     logrus.FieldLogger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log logrus.FieldLogger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, log: log}
}

func (r *RedisRelay) Notify(ctx context.Context) error {
	return r.client.Publish(ctx, r.channel, Token).Err()
}

// Run relays messages until ctx is done, resubscribing when the channel
// closes underneath it.
func (r *RedisRelay) Run(ctx context.Context) {
	for {
		sub := r.client.Subscribe(ctx, r.channel)
		ch := sub.Channel()
	loop:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop
				}
				if msg.Payload != Token {
					r.log.WithField("payload", msg.Payload).Debug("ignoring unknown relay message")
					continue
				}
				r.hub.Broadcast(ctx)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		r.log.Error("relay channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}
