package cartclient

import (
	"context"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/demoforge/demoforge-backend/pkg/redis"
)

// RedisFeed implements FeedSource over the Redis pub/sub channels the
// server publishes cart changes on.
type RedisFeed struct {
	client *redisclient.Client
	prefix string
}

// NewRedisFeed builds a feed source. Prefix must match the server's
// configured feed channel prefix.
func NewRedisFeed(client *redisclient.Client, prefix string) *RedisFeed {
	return &RedisFeed{client: client, prefix: prefix}
}

// Subscribe opens a subscription on the channel for the active key: the
// user channel when authenticated, the session channel otherwise.
func (f *RedisFeed) Subscribe(ctx context.Context, key Key) (Subscription, error) {
	scope, id := redisclient.ScopeSession, key.SessionID
	if key.UserID != "" {
		scope, id = redisclient.ScopeUser, key.UserID
	}

	channel := f.client.FeedChannel(f.prefix, scope, id)
	ps, err := f.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	sub := &redisSubscription{ps: ps, out: make(chan []byte)}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	ps  *redis.PubSub
	out chan []byte
}

func (s *redisSubscription) Events() <-chan []byte { return s.out }

func (s *redisSubscription) Close() error { return s.ps.Close() }

// pump forwards pub/sub payloads until Close shuts the underlying channel.
func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		s.out <- []byte(msg.Payload)
	}
}
