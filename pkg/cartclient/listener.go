package cartclient

import (
	"bytes"
	"context"
	"encoding/json"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

// Subscription is one open change-feed stream for a cart key.
type Subscription interface {
	Events() <-chan []byte
	Close() error
}

// FeedSource opens change-feed subscriptions scoped to a cart key.
type FeedSource interface {
	Subscribe(ctx context.Context, key Key) (Subscription, error)
}

// AuthEventType labels authentication state transitions.
type AuthEventType string

const (
	AuthSignedIn  AuthEventType = "SIGNED_IN"
	AuthSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is one emission from the authentication event source. Types
// other than the two named ones update the held user id with no side
// effect.
type AuthEvent struct {
	Type   AuthEventType
	UserID string
}

// ListenerOptions configures the realtime reconciliation listener.
type ListenerOptions struct {
	Cache  *Cache
	Remote RemoteStore
	Feed   FeedSource
	Logger *logger.Logger
}

// Listener keeps the cache convergent with server state. It subscribes to
// the change feed for the active key, overwrites local items wholesale on
// pushed changes, and orchestrates the anonymous-to-authenticated merge.
// All feed and auth events are handled on one goroutine, so subscription
// teardown and setup never interleave under rapid sign-in/out flapping.
type Listener struct {
	cache  *Cache
	remote RemoteStore
	feed   FeedSource
	logg   *logger.Logger
}

// NewListener builds a listener over an existing cache and remote store.
func NewListener(opts ListenerOptions) (*Listener, error) {
	if opts.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cache is required")
	}
	if opts.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote store is required")
	}
	if opts.Feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed source is required")
	}
	return &Listener{
		cache:  opts.Cache,
		remote: opts.Remote,
		feed:   opts.Feed,
		logg:   opts.Logger,
	}, nil
}

// Run blocks until ctx is done or the auth channel closes with no open
// subscription left to serve. Callers run it on its own goroutine.
func (l *Listener) Run(ctx context.Context, auth <-chan AuthEvent) {
	sub := l.subscribe(ctx, nil)
	defer func() {
		if sub != nil {
			_ = sub.Close()
		}
	}()

	for {
		var events <-chan []byte
		if sub != nil {
			events = sub.Events()
		}

		select {
		case <-ctx.Done():
			return
		case ev, ok := <-auth:
			if !ok {
				if events == nil {
					return
				}
				auth = nil
				continue
			}
			sub = l.handleAuth(ctx, ev, sub)
		case payload, ok := <-events:
			if !ok {
				sub = l.subscribe(ctx, sub)
				continue
			}
			l.applyFeedEvent(payload)
		}
	}
}

// applyFeedEvent overwrites local state with a pushed record when the
// payload carries an items field. Last writer wins at the record level;
// there is no field merge on this side.
func (l *Listener) applyFeedEvent(payload []byte) {
	var event struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}
	if len(event.Items) == 0 || bytes.Equal(event.Items, []byte("null")) {
		return
	}

	var items []Item
	if err := json.Unmarshal(event.Items, &items); err != nil {
		return
	}
	l.cache.Replace(items)
}

func (l *Listener) handleAuth(ctx context.Context, ev AuthEvent, sub Subscription) Subscription {
	prev := l.cache.UserID()

	switch ev.Type {
	case AuthSignedIn:
		if ev.UserID == "" || ev.UserID == prev {
			return sub
		}
		if prev == "" {
			// Merge before the key switch so a fetch right after sees the
			// folded cart, not an empty authenticated one.
			if err := l.remote.Merge(ctx, l.cache.SessionID(), ev.UserID); err != nil {
				l.logError(ctx, "cart.merge", err)
			}
		}
		l.cache.SetUserID(ev.UserID)
		sub = l.subscribe(ctx, sub)
		l.cache.Load(ctx)
		return sub

	case AuthSignedOut:
		if prev == "" {
			return sub
		}
		l.cache.SetUserID("")
		sub = l.subscribe(ctx, sub)
		l.cache.Load(ctx)
		return sub

	default:
		if ev.UserID == prev {
			return sub
		}
		l.cache.SetUserID(ev.UserID)
		return l.subscribe(ctx, sub)
	}
}

// subscribe tears down the previous subscription before opening one for
// the current active key, so no listener outlives a stale key.
func (l *Listener) subscribe(ctx context.Context, prev Subscription) Subscription {
	if prev != nil {
		_ = prev.Close()
	}

	sub, err := l.feed.Subscribe(ctx, l.cache.ActiveKey())
	if err != nil {
		l.logError(ctx, "cart.feed.subscribe", err)
		return nil
	}
	return sub
}

func (l *Listener) logError(ctx context.Context, msg string, err error) {
	if l.logg == nil {
		return
	}
	l.logg.Error(ctx, msg, err)
}
