// Package cartclient is the cart synchronization SDK: it resolves a stable
// anonymous session identity, mirrors the remote cart into a local cache
// with optimistic mutations, and reconciles against the server's realtime
// change feed across sign-in and sign-out transitions.
package cartclient

import (
	"context"
	"net/http"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

// Options configures a CartSync instance. BaseURL and Feed are required;
// everything else has a workable default.
type Options struct {
	// BaseURL is the cart-sync API origin, e.g. "https://api.example.com".
	BaseURL string

	// Feed delivers server-pushed cart changes.
	Feed FeedSource

	// Identity stores, ordered by persistence scope. Both optional.
	Cookie  IdentityStore
	Storage IdentityStore

	// URLSessionID and OnURLConsumed carry the session_id hand-off
	// parameter and the callback that strips it from the URL.
	URLSessionID  string
	OnURLConsumed func()

	HTTPClient *http.Client
	Logger     *logger.Logger
}

// CartSync bundles the resolver, remote client, cache, and listener into
// one synchronized cart for a single browsing context.
type CartSync struct {
	resolver *Resolver
	remote   RemoteStore
	cache    *Cache
	listener *Listener
	logg     *logger.Logger
}

// New wires a CartSync. Identity resolution happens here, so the returned
// instance already has its session key fixed for its lifetime.
func New(ctx context.Context, opts Options) (*CartSync, error) {
	if opts.Feed == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed source is required")
	}

	remote, err := NewClient(opts.BaseURL, opts.HTTPClient, opts.Logger)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(ResolverOptions{
		URLSessionID:  opts.URLSessionID,
		OnURLConsumed: opts.OnURLConsumed,
		Cookie:        opts.Cookie,
		Storage:       opts.Storage,
		Logger:        opts.Logger,
	})

	cache, err := NewCache(CacheOptions{
		SessionID: resolver.Resolve(ctx),
		Remote:    remote,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	listener, err := NewListener(ListenerOptions{
		Cache:  cache,
		Remote: remote,
		Feed:   opts.Feed,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &CartSync{
		resolver: resolver,
		remote:   remote,
		cache:    cache,
		listener: listener,
		logg:     opts.Logger,
	}, nil
}

// Start performs the initial fetch and runs the reconciliation listener
// until ctx is done. Auth may be nil when no authentication source exists.
func (c *CartSync) Start(ctx context.Context, auth <-chan AuthEvent) {
	c.cache.Load(ctx)
	c.listener.Run(ctx, auth)
}

// Cart exposes the local state cache for reads and mutations.
func (c *CartSync) Cart() *Cache { return c.cache }

// SessionID returns the resolved anonymous identity.
func (c *CartSync) SessionID() string { return c.cache.SessionID() }
