package cartclient

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/demoforge/demoforge-backend/pkg/logger"
)

// ResolverOptions configures session identity resolution. Cookie and
// Storage are ordered by persistence scope: the cookie store is shared
// across subdomains, the storage store is same-origin only. Either may be
// nil when that scope is unavailable.
type ResolverOptions struct {
	// URLSessionID carries the hand-off value extracted from the
	// session_id query parameter, when one was present.
	URLSessionID string

	// OnURLConsumed is invoked once when the URL value is adopted so the
	// embedder can strip the parameter without a navigation.
	OnURLConsumed func()

	Cookie  IdentityStore
	Storage IdentityStore

	Logger *logger.Logger

	// Now and Rand override time and randomness in tests.
	Now  func() time.Time
	Rand *rand.Rand
}

// Resolver produces one stable anonymous session identifier per browsing
// context. Resolution order: URL hand-off, shared cookie, local storage,
// freshly generated. Each hit back-fills the more volatile stores so later
// lookups short-circuit sooner.
type Resolver struct {
	mu       sync.Mutex
	resolved string
	opts     ResolverOptions
}

// NewResolver builds a resolver. Resolution happens lazily on first Resolve.
func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{opts: opts}
}

// Resolve returns the session identifier for this context. Repeated calls
// return the same value. Store writes that fail are logged and ignored;
// with every store blocked the identifier survives only as long as this
// resolver does, and the cart degrades to non-persistent.
func (r *Resolver) Resolve(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != "" {
		return r.resolved
	}

	if id := strings.TrimSpace(r.opts.URLSessionID); id != "" {
		r.store(ctx, r.opts.Cookie, id)
		r.store(ctx, r.opts.Storage, id)
		if r.opts.OnURLConsumed != nil {
			r.opts.OnURLConsumed()
		}
		r.resolved = id
		return id
	}

	if id := r.load(ctx, r.opts.Cookie); id != "" {
		r.store(ctx, r.opts.Storage, id)
		r.resolved = id
		return id
	}

	if id := r.load(ctx, r.opts.Storage); id != "" {
		// Cookie expired or was cleared while storage persisted.
		r.store(ctx, r.opts.Cookie, id)
		r.resolved = id
		return id
	}

	id := r.generate()
	r.store(ctx, r.opts.Cookie, id)
	r.store(ctx, r.opts.Storage, id)
	r.resolved = id
	return id
}

// generate builds session_<millis>_<base36 suffix>. Not cryptographically
// strong; collisions are acceptable for an anonymous cart key.
func (r *Resolver) generate() string {
	millis := r.opts.Now().UnixMilli()
	suffix := strconv.FormatInt(r.opts.Rand.Int63n(36*36*36*36*36*36*36), 36)
	return "session_" + strconv.FormatInt(millis, 10) + "_" + suffix
}

func (r *Resolver) load(ctx context.Context, store IdentityStore) string {
	if store == nil {
		return ""
	}
	id, err := store.Load()
	if err != nil {
		r.warn(ctx, "session identity load failed", err)
		return ""
	}
	return strings.TrimSpace(id)
}

func (r *Resolver) store(ctx context.Context, store IdentityStore, id string) {
	if store == nil {
		return
	}
	if err := store.Store(id); err != nil {
		r.warn(ctx, "session identity store failed", err)
	}
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	if r.opts.Logger == nil {
		return
	}
	logCtx := r.opts.Logger.WithField(ctx, "error", err.Error())
	r.opts.Logger.Warn(logCtx, msg)
}
