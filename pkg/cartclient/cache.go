package cartclient

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

// CacheOptions configures the local cart state cache.
type CacheOptions struct {
	SessionID string
	Remote    RemoteStore
	Logger    *logger.Logger

	// Dispatch runs a persistence call after the local mutation committed.
	// Defaults to a goroutine per call; tests install a synchronous one.
	Dispatch func(fn func())
}

// Cache holds the item list the UI reads, applies mutations optimistically,
// and fans each mutation out to the remote store without waiting on it.
// Persistence failures are logged and swallowed; the change feed or the
// next fetch reconciles any divergence.
type Cache struct {
	mu       sync.Mutex
	items    []Item
	loading  bool
	userID   string
	session  string
	remote   RemoteStore
	logg     *logger.Logger
	dispatch func(fn func())
}

// NewCache builds a cache for one browsing context. It starts in the
// loading state until the first Load completes.
func NewCache(opts CacheOptions) (*Cache, error) {
	if strings.TrimSpace(opts.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if opts.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote store is required")
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { go fn() }
	}
	return &Cache{
		loading:  true,
		session:  opts.SessionID,
		remote:   opts.Remote,
		logg:     opts.Logger,
		dispatch: dispatch,
	}, nil
}

// Load performs the initial fetch. The loading flag drops after the first
// attempt regardless of outcome so callers are never stuck loading on a
// network failure.
func (c *Cache) Load(ctx context.Context) {
	cart, err := c.remote.Fetch(ctx, c.ActiveKey())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.logError(ctx, "cart.fetch", err)
		return
	}
	if cart == nil {
		c.items = nil
		return
	}
	c.items = append([]Item(nil), cart.Items...)
}

// AddItem merges by id: an existing line's quantity grows by the given
// amount, a new line is appended. A non-positive quantity means 1.
func (c *Cache) AddItem(ctx context.Context, item Item, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		item.Quantity = quantity
		c.items = append(c.items, item)
	}
	c.mu.Unlock()

	c.persist(ctx)
}

// RemoveItem drops the matching line. Absent ids are a no-op, but the save
// still fires so the server converges on the same list.
func (c *Cache) RemoveItem(ctx context.Context, id string) {
	c.mu.Lock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()

	c.persist(ctx)
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (c *Cache) UpdateQuantity(ctx context.Context, id string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(ctx, id)
		return
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			break
		}
	}
	c.mu.Unlock()

	c.persist(ctx)
}

// Clear empties the local list and deletes the remote record. This is a
// distinct server operation, not a save with zero items.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = nil
	key := c.activeKeyLocked()
	c.mu.Unlock()

	opCtx := context.WithoutCancel(ctx)
	c.dispatch(func() {
		if err := c.remote.Clear(opCtx, key); err != nil {
			c.logError(opCtx, "cart.clear", err)
		}
	})
}

// Replace overwrites local state wholesale with a feed-pushed item list.
func (c *Cache) Replace(items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Item(nil), items...)
}

// Items returns a copy of the current item list.
func (c *Cache) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// ItemCount sums quantities across all lines, computed on every read.
func (c *Cache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Total sums price times quantity across all lines, computed on every read.
func (c *Cache) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Loading reports whether the initial fetch has completed yet.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// SetUserID updates the authenticated identity; "" reverts the active key
// to the session id.
func (c *Cache) SetUserID(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = strings.TrimSpace(userID)
}

// UserID returns the currently held authenticated identity, if any.
func (c *Cache) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SessionID returns the anonymous identity this cache was built with.
func (c *Cache) SessionID() string {
	return c.session
}

// ActiveKey returns the current cart address.
func (c *Cache) ActiveKey() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeKeyLocked()
}

func (c *Cache) activeKeyLocked() Key {
	return Key{SessionID: c.session, UserID: c.userID}
}

// persist snapshots state under the lock and saves it off the caller's
// path. The snapshot keeps out-of-order network delivery from ever writing
// a list the user never saw.
func (c *Cache) persist(ctx context.Context) {
	c.mu.Lock()
	items := append([]Item(nil), c.items...)
	key := c.activeKeyLocked()
	c.mu.Unlock()

	opCtx := context.WithoutCancel(ctx)
	c.dispatch(func() {
		if err := c.remote.Save(opCtx, key, items); err != nil {
			c.logError(opCtx, "cart.save", err)
		}
	})
}

func (c *Cache) logError(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Error(ctx, msg, err)
}
