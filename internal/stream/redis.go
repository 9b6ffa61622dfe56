package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource consumes the same push messages from a redis pub/sub channel,
// for deployments where the backend relays system events through redis
// instead of exposing the websocket directly.
type RedisSource struct {
	client  *redis.Client
	channel string
	handler Handler
	logf    func(format string, args ...any)
}

func NewRedisSource(redisURL, channel string, handler Handler, logf func(format string, args ...any)) (*RedisSource, error) {
	url := strings.TrimSpace(redisURL)
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	ch := strings.TrimSpace(channel)
	if ch == "" {
		return nil, errors.New("redis channel is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisSource{client: client, channel: ch, handler: handler, logf: logf}, nil
}

// Run blocks until ctx is done. go-redis reconnects the subscription
// internally, so a single Channel loop suffices.
func (s *RedisSource) Run(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis source is nil")
	}
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	s.logf("stream: subscribed channel=%s", s.channel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			msg, err := Decode([]byte(m.Payload))
			if err != nil {
				continue
			}
			s.handler(msg)
		}
	}
}

func (s *RedisSource) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
