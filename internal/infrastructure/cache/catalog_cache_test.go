package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaguide/backend/internal/domain/integration"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type memCardStore struct {
	mu        sync.Mutex
	cards     map[string]*integration.VendorProductCard
	remaining map[string]time.Duration
	getErr    error
	sets      int
}

func newMemCardStore() *memCardStore {
	return &memCardStore{cards: make(map[string]*integration.VendorProductCard)}
}

func (s *memCardStore) Get(_ context.Context, id string) (*integration.VendorProductCard, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, 0, s.getErr
	}
	return s.cards[id], s.remaining[id], nil
}

func (s *memCardStore) Set(_ context.Context, id string, card *integration.VendorProductCard, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[id] = card
	s.sets++
	return nil
}

func (s *memCardStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cards)
	s.cards = make(map[string]*integration.VendorProductCard)
	return n, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	lookup map[string]int
}

func (r *countingRecorder) ObserveCacheLookup(cache string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookup == nil {
		r.lookup = make(map[string]int)
	}
	r.lookup[fmt.Sprintf("%s:%t", cache, hit)]++
}

func card(id int64) *integration.VendorProductCard {
	return &integration.VendorProductCard{Product: integration.VendorProduct{ID: id, Name: fmt.Sprintf("Product %d", id)}}
}

func newTestCache(clock *fakeClock, opts ...CatalogCacheOption) *CatalogCache {
	base := []CatalogCacheOption{
		WithTTL(10 * time.Minute),
		WithCleanupInterval(0),
		WithCacheClock(clock.Now),
	}
	return NewCatalogCache(append(base, opts...)...)
}

func TestCatalogCache_CardFreshAndStale(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	ctx := context.Background()

	_, ok := c.GetCard(ctx, "1")
	assert.False(t, ok)

	c.SetCard(ctx, "1", card(1))

	got, ok := c.GetCard(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Product.ID)

	clock.Advance(9*time.Minute + 59*time.Second)
	_, ok = c.GetCard(ctx, "1")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.GetCard(ctx, "1")
	assert.False(t, ok, "entry at exactly TTL age is stale")
	assert.Equal(t, 0, c.Stats().ProductCards, "stale entry is evicted on read")
}

func TestCatalogCache_SetNilCardIsIgnored(t *testing.T) {
	c := newTestCache(newFakeClock())
	c.SetCard(context.Background(), "1", nil)
	assert.Equal(t, 0, c.Stats().ProductCards)
}

func TestCatalogCache_ProductListSlot(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)

	_, ok := c.GetProductList()
	assert.False(t, ok)
	assert.Equal(t, ProductListEmpty, c.Stats().ProductList)

	list := []integration.VendorProduct{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	c.SetProductList(list)
	list[0].Name = "mutated"

	got, ok := c.GetProductList()
	require.True(t, ok)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, ProductListPopulated, c.Stats().ProductList)
	assert.Equal(t, 2, c.Stats().ProductListSize)

	clock.Advance(10 * time.Minute)
	_, ok = c.GetProductList()
	assert.False(t, ok)
	assert.Equal(t, ProductListEmpty, c.Stats().ProductList)
}

func TestCatalogCache_ClearEmptiesEverything(t *testing.T) {
	clock := newFakeClock()
	store := newMemCardStore()
	c := newTestCache(clock, WithCardStore(store))
	ctx := context.Background()

	c.SetCard(ctx, "1", card(1))
	c.SetCard(ctx, "2", card(2))
	c.SetProductList([]integration.VendorProduct{{ID: 1}})

	stats := c.Stats()
	assert.Equal(t, 2, stats.ProductCards)
	assert.Equal(t, ProductListPopulated, stats.ProductList)
	assert.True(t, stats.SharedStore)

	c.Clear(ctx)

	stats = c.Stats()
	assert.Equal(t, 0, stats.ProductCards)
	assert.Equal(t, ProductListEmpty, stats.ProductList)
	_, ok := c.GetCard(ctx, "1")
	assert.False(t, ok)
	assert.Empty(t, store.cards)
}

func TestCatalogCache_SharedStoreReadThrough(t *testing.T) {
	clock := newFakeClock()
	store := newMemCardStore()
	store.cards["7"] = card(7)
	recorder := &countingRecorder{}
	c := newTestCache(clock, WithCardStore(store), WithCacheRecorder(recorder))
	ctx := context.Background()

	got, ok := c.GetCard(ctx, "7")
	require.True(t, ok)
	assert.Equal(t, int64(7), got.Product.ID)
	assert.Equal(t, 1, c.Stats().ProductCards, "shared hit populates local cache")

	c.SetCard(ctx, "8", card(8))
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, 1, recorder.lookup["product_card:true"])
}

func TestCatalogCache_SharedStoreHitKeepsRemainingTTL(t *testing.T) {
	clock := newFakeClock()
	store := newMemCardStore()
	store.cards["7"] = card(7)
	store.remaining = map[string]time.Duration{"7": 2 * time.Minute}
	c := newTestCache(clock, WithCardStore(store))
	ctx := context.Background()

	_, ok := c.GetCard(ctx, "7")
	require.True(t, ok)

	// the shared entry expires on its own; the local copy must not outlive it
	delete(store.cards, "7")

	clock.Advance(time.Minute)
	_, ok = c.GetCard(ctx, "7")
	assert.True(t, ok, "still inside the shared entry's lifetime")

	clock.Advance(90 * time.Second)
	_, ok = c.GetCard(ctx, "7")
	assert.False(t, ok, "local copy expires with the shared entry")
}

func TestCatalogCache_SharedStoreHitWithUnknownTTL(t *testing.T) {
	clock := newFakeClock()
	store := newMemCardStore()
	store.cards["9"] = card(9)
	c := newTestCache(clock, WithCardStore(store))
	ctx := context.Background()

	_, ok := c.GetCard(ctx, "9")
	require.True(t, ok)
	delete(store.cards, "9")

	clock.Advance(9 * time.Minute)
	_, ok = c.GetCard(ctx, "9")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.GetCard(ctx, "9")
	assert.False(t, ok)
}

func TestCatalogCache_SharedStoreErrorIsMiss(t *testing.T) {
	store := newMemCardStore()
	store.getErr = errors.New("connection refused")
	c := newTestCache(newFakeClock(), WithCardStore(store))

	got, ok := c.GetCard(context.Background(), "1")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestCatalogCache_HitMissCounters(t *testing.T) {
	c := newTestCache(newFakeClock())
	ctx := context.Background()

	c.SetCard(ctx, "1", card(1))
	c.GetCard(ctx, "1")
	c.GetCard(ctx, "1")
	c.GetCard(ctx, "2")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 10*time.Minute, stats.TTL)
}

func TestCatalogCache_EvictStale(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(clock)
	ctx := context.Background()

	c.SetCard(ctx, "1", card(1))
	clock.Advance(5 * time.Minute)
	c.SetCard(ctx, "2", card(2))
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, c.evictStale())
	assert.Equal(t, 1, c.Stats().ProductCards)
}

func TestCatalogCache_ConcurrentAccess(t *testing.T) {
	c := NewCatalogCache(WithTTL(time.Minute), WithCleanupInterval(10*time.Millisecond))
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%d", i%4)
			for j := 0; j < 100; j++ {
				c.SetCard(ctx, id, card(int64(i)))
				c.GetCard(ctx, id)
				c.SetProductList([]integration.VendorProduct{{ID: int64(j)}})
				c.GetProductList()
				if j%25 == 0 {
					c.Clear(ctx)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().ProductCards, 4)
}

func TestCatalogCache_CloseIsIdempotent(t *testing.T) {
	c := NewCatalogCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestRedisCardStore_KeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	assert.Equal(t, "catalog:card:42", NewRedisCardStore(client, "").key("42"))
	assert.Equal(t, "x:42", NewRedisCardStore(client, "x:").key("42"))
}

func TestRedisCardStore_UnreachableServerDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := NewRedisCardStore(client, "")
	_, _, err := store.Get(context.Background(), "1")
	require.Error(t, err)

	c := newTestCache(newFakeClock(), WithCardStore(store))
	_, ok := c.GetCard(context.Background(), "1")
	assert.False(t, ok)

	c.SetCard(context.Background(), "1", card(1))
	got, ok := c.GetCard(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Product.ID)
}
