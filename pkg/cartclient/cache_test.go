package cartclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// recordingRemote is an in-memory RemoteStore that records every call and
// mimics the server's key handling closely enough for round trips.
type recordingRemote struct {
	mu    sync.Mutex
	calls []string
	cart  *Cart
	err   error
}

func (r *recordingRemote) Fetch(_ context.Context, key Key) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("fetch %s", keyLabel(key)))
	if r.err != nil {
		return nil, r.err
	}
	if r.cart == nil {
		return nil, nil
	}
	cp := *r.cart
	cp.Items = append([]Item(nil), r.cart.Items...)
	return &cp, nil
}

func (r *recordingRemote) Save(_ context.Context, key Key, items []Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("save %s n=%d", keyLabel(key), len(items)))
	if r.err != nil {
		return r.err
	}
	if r.cart == nil {
		r.cart = &Cart{ID: "cart-1"}
	}
	r.cart.Items = append([]Item(nil), items...)
	return nil
}

func (r *recordingRemote) Merge(_ context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("merge %s %s", sessionID, userID))
	return r.err
}

func (r *recordingRemote) Clear(_ context.Context, key Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("clear %s", keyLabel(key)))
	if r.err != nil {
		return r.err
	}
	r.cart = nil
	return nil
}

func (r *recordingRemote) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func keyLabel(key Key) string {
	if key.UserID != "" {
		return "user:" + key.UserID
	}
	return "session:" + key.SessionID
}

// syncCache builds a cache whose persistence runs inline, so assertions
// never race the save goroutine.
func syncCache(t *testing.T, remote RemoteStore) *Cache {
	t.Helper()
	cache, err := NewCache(CacheOptions{
		SessionID: "session_1_abc",
		Remote:    remote,
		Dispatch:  func(fn func()) { fn() },
	})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return cache
}

func TestCache_AddItem_MergesByID(t *testing.T) {
	remote := &recordingRemote{}
	cache := syncCache(t, remote)
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x", Name: "Widget", Price: 10}, 3)
	cache.AddItem(ctx, Item{ID: "x", Name: "Widget", Price: 10}, 2)

	items := cache.Items()
	if len(items) != 1 {
		t.Fatalf("same id must never produce two entries, got %+v", items)
	}
	if items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", items[0].Quantity)
	}
}

func TestCache_AddItem_DefaultsQuantityToOne(t *testing.T) {
	cache := syncCache(t, &recordingRemote{})

	cache.AddItem(context.Background(), Item{ID: "x"}, 0)
	if count := cache.ItemCount(); count != 1 {
		t.Fatalf("item count = %d, want 1", count)
	}
}

func TestCache_UpdateQuantity_ZeroRemoves(t *testing.T) {
	cache := syncCache(t, &recordingRemote{})
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x", Price: 10}, 2)
	cache.AddItem(ctx, Item{ID: "y", Price: 5}, 1)
	cache.UpdateQuantity(ctx, "x", 0)

	if len(cache.Items()) != 1 {
		t.Fatalf("zero quantity should remove the line, got %+v", cache.Items())
	}
	if cache.ItemCount() != 1 || cache.Total() != 5 {
		t.Fatalf("count/total = %d/%v after removal", cache.ItemCount(), cache.Total())
	}
}

func TestCache_UpdateQuantity_SetsValue(t *testing.T) {
	cache := syncCache(t, &recordingRemote{})
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x"}, 2)
	cache.UpdateQuantity(ctx, "x", 7)

	if items := cache.Items(); items[0].Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", items[0].Quantity)
	}
}

func TestCache_RemoveItem_AbsentIsNoop(t *testing.T) {
	remote := &recordingRemote{}
	cache := syncCache(t, remote)
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x"}, 1)
	cache.RemoveItem(ctx, "ghost")

	if len(cache.Items()) != 1 {
		t.Fatalf("removing an absent id must not change state, got %+v", cache.Items())
	}
}

func TestCache_Totals(t *testing.T) {
	cache := syncCache(t, &recordingRemote{})
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "a", Price: 10}, 2)
	cache.AddItem(ctx, Item{ID: "b", Price: 5}, 3)

	if total := cache.Total(); total != 35 {
		t.Fatalf("total = %v, want 35", total)
	}
	if count := cache.ItemCount(); count != 5 {
		t.Fatalf("item count = %d, want 5", count)
	}
}

func TestCache_Clear_EmptiesRemoteRecord(t *testing.T) {
	remote := &recordingRemote{}
	cache := syncCache(t, remote)
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x", Price: 10}, 2)
	cache.Clear(ctx)

	if len(cache.Items()) != 0 {
		t.Fatalf("local items should be empty, got %+v", cache.Items())
	}

	// A fresh cache against the same key sees the record gone, proving the
	// server-side record was removed and not just local state.
	fresh := syncCache(t, remote)
	fresh.Load(ctx)
	if len(fresh.Items()) != 0 {
		t.Fatalf("remote record should be empty after clear, got %+v", fresh.Items())
	}
}

func TestCache_Clear_IsDeleteNotSave(t *testing.T) {
	remote := &recordingRemote{}
	cache := syncCache(t, remote)

	cache.Clear(context.Background())

	calls := remote.callLog()
	if len(calls) != 1 || calls[0] != "clear session:session_1_abc" {
		t.Fatalf("clear must issue a delete, got %v", calls)
	}
}

func TestCache_MutationsTriggerSave(t *testing.T) {
	remote := &recordingRemote{}
	cache := syncCache(t, remote)
	ctx := context.Background()

	cache.AddItem(ctx, Item{ID: "x"}, 1)
	cache.RemoveItem(ctx, "x")
	cache.AddItem(ctx, Item{ID: "y"}, 1)
	cache.UpdateQuantity(ctx, "y", 4)

	saves := 0
	for _, call := range remote.callLog() {
		if call[:4] == "save" {
			saves++
		}
	}
	if saves != 4 {
		t.Fatalf("expected 4 saves, got %d: %v", saves, remote.callLog())
	}
}

func TestCache_Load_ClearsLoadingOnFailure(t *testing.T) {
	remote := &recordingRemote{err: errors.New("network down")}
	cache := syncCache(t, remote)

	if !cache.Loading() {
		t.Fatal("cache should start loading")
	}
	cache.Load(context.Background())
	if cache.Loading() {
		t.Fatal("loading must clear even when the fetch fails")
	}
}

func TestCache_Load_AbsentCartIsEmpty(t *testing.T) {
	cache := syncCache(t, &recordingRemote{})

	cache.Load(context.Background())
	if len(cache.Items()) != 0 || cache.Loading() {
		t.Fatalf("absent cart should load as empty, items=%v loading=%v", cache.Items(), cache.Loading())
	}
}

func TestCache_SaveFailureKeepsLocalState(t *testing.T) {
	remote := &recordingRemote{err: errors.New("network down")}
	cache := syncCache(t, remote)

	cache.AddItem(context.Background(), Item{ID: "x", Price: 10}, 1)
	if cache.ItemCount() != 1 {
		t.Fatal("optimistic state must survive a failed save")
	}
}
