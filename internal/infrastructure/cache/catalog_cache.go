package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitaguide/backend/internal/domain/integration"
	"go.uber.org/zap"
)

const (
	// DefaultCatalogTTL is how long vendor data stays fresh
	DefaultCatalogTTL      = 30 * time.Minute
	defaultCleanupInterval = time.Minute

	// ProductListEmpty and ProductListPopulated describe the list slot in Stats
	ProductListEmpty     = "empty"
	ProductListPopulated = "populated"
)

// CardStore is a shared second-level store for product cards.
// Get returns a nil card on a miss, along with the time the card has left to live.
// A non-positive remaining time means the store does not know it.
type CardStore interface {
	Get(ctx context.Context, vendorID string) (card *integration.VendorProductCard, remaining time.Duration, err error)
	Set(ctx context.Context, vendorID string, card *integration.VendorProductCard, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
}

// CacheRecorder observes cache lookups
type CacheRecorder interface {
	ObserveCacheLookup(cache string, hit bool)
}

// cacheEntry wraps a cached value with its insertion time
type cacheEntry[T any] struct {
	value      T
	insertedAt time.Time
}

// isStale reports whether the entry is older than ttl
func (e *cacheEntry[T]) isStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.insertedAt) >= ttl
}

// CacheStats is a snapshot of the catalog cache
type CacheStats struct {
	ProductCards    int           `json:"product_cards"`
	ProductList     string        `json:"product_list"`
	ProductListSize int           `json:"product_list_size"`
	Hits            int64         `json:"hits"`
	Misses          int64         `json:"misses"`
	TTL             time.Duration `json:"ttl"`
	SharedStore     bool          `json:"shared_store"`
}

// CatalogCache caches vendor product cards by id and the assembled product listing
// in a single slot. Both expire after the same TTL.
type CatalogCache struct {
	mu    sync.Mutex
	cards map[string]*cacheEntry[*integration.VendorProductCard]
	list  *cacheEntry[[]integration.VendorProduct]

	ttl             time.Duration
	cleanupInterval time.Duration
	l2              CardStore
	recorder        CacheRecorder
	logger          *zap.Logger
	now             func() time.Time

	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// CatalogCacheOption is a functional option for configuring the cache
type CatalogCacheOption func(*CatalogCache)

// WithTTL sets the freshness window of both caches
func WithTTL(ttl time.Duration) CatalogCacheOption {
	return func(c *CatalogCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often stale cards are evicted. Zero disables the janitor.
func WithCleanupInterval(d time.Duration) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.cleanupInterval = d
	}
}

// WithCardStore adds a shared second-level card store
func WithCardStore(store CardStore) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.l2 = store
	}
}

// WithCacheRecorder sets the lookup observer
func WithCacheRecorder(r CacheRecorder) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.recorder = r
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.logger = logger
	}
}

// WithCacheClock overrides the time source
func WithCacheClock(now func() time.Time) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.now = now
	}
}

// NewCatalogCache creates a new catalog cache
func NewCatalogCache(opts ...CatalogCacheOption) *CatalogCache {
	c := &CatalogCache{
		cards:           make(map[string]*cacheEntry[*integration.VendorProductCard]),
		ttl:             DefaultCatalogTTL,
		cleanupInterval: defaultCleanupInterval,
		logger:          zap.NewNop(),
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cleanupInterval > 0 {
		go c.cleanupStale()
	}

	return c
}

// GetCard returns a fresh card for the vendor id
func (c *CatalogCache) GetCard(ctx context.Context, vendorID string) (*integration.VendorProductCard, bool) {
	c.mu.Lock()
	if entry, ok := c.cards[vendorID]; ok {
		if !entry.isStale(c.now(), c.ttl) {
			c.mu.Unlock()
			c.recordLookup("product_card", true)
			return entry.value, true
		}
		delete(c.cards, vendorID)
	}
	c.mu.Unlock()

	if c.l2 != nil {
		card, remaining, err := c.l2.Get(ctx, vendorID)
		if err != nil {
			c.logger.Warn("Shared card store read failed", zap.String("vendor_id", vendorID), zap.Error(err))
		} else if card != nil {
			// keep the shared entry's age so the card still expires one TTL after it was fetched
			insertedAt := c.now()
			if remaining > 0 && remaining < c.ttl {
				insertedAt = insertedAt.Add(remaining - c.ttl)
			}
			c.storeCardAt(vendorID, card, insertedAt)
			c.recordLookup("product_card", true)
			return card, true
		}
	}

	c.recordLookup("product_card", false)
	return nil, false
}

// SetCard stores a card for the vendor id
func (c *CatalogCache) SetCard(ctx context.Context, vendorID string, card *integration.VendorProductCard) {
	if card == nil {
		return
	}
	c.storeCard(vendorID, card)

	if c.l2 != nil {
		if err := c.l2.Set(ctx, vendorID, card, c.ttl); err != nil {
			c.logger.Warn("Shared card store write failed", zap.String("vendor_id", vendorID), zap.Error(err))
		}
	}
}

func (c *CatalogCache) storeCard(vendorID string, card *integration.VendorProductCard) {
	c.storeCardAt(vendorID, card, c.now())
}

func (c *CatalogCache) storeCardAt(vendorID string, card *integration.VendorProductCard, insertedAt time.Time) {
	c.mu.Lock()
	c.cards[vendorID] = &cacheEntry[*integration.VendorProductCard]{value: card, insertedAt: insertedAt}
	c.mu.Unlock()
}

// GetProductList returns a copy of the cached listing while it is fresh
func (c *CatalogCache) GetProductList() ([]integration.VendorProduct, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.list == nil {
		c.recordLookup("product_list", false)
		return nil, false
	}
	if c.list.isStale(c.now(), c.ttl) {
		c.list = nil
		c.recordLookup("product_list", false)
		return nil, false
	}

	c.recordLookup("product_list", true)
	return append([]integration.VendorProduct(nil), c.list.value...), true
}

// SetProductList replaces the cached listing
func (c *CatalogCache) SetProductList(products []integration.VendorProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list = &cacheEntry[[]integration.VendorProduct]{
		value:      append([]integration.VendorProduct(nil), products...),
		insertedAt: c.now(),
	}
}

// Clear empties both caches, including the shared card store
func (c *CatalogCache) Clear(ctx context.Context) {
	c.mu.Lock()
	cards := len(c.cards)
	c.cards = make(map[string]*cacheEntry[*integration.VendorProductCard])
	c.list = nil
	c.mu.Unlock()

	fields := []zap.Field{zap.Int("product_cards", cards)}
	if c.l2 != nil {
		removed, err := c.l2.Clear(ctx)
		if err != nil {
			c.logger.Warn("Failed to clear shared card store", zap.Error(err))
		}
		fields = append(fields, zap.Int("shared_cards", removed))
	}

	c.logger.Info("Catalog cache cleared", fields...)
}

// Stats returns a snapshot of the cache state
func (c *CatalogCache) Stats() CacheStats {
	c.mu.Lock()
	stats := CacheStats{
		ProductCards: len(c.cards),
		ProductList:  ProductListEmpty,
		TTL:          c.ttl,
		SharedStore:  c.l2 != nil,
	}
	if c.list != nil && !c.list.isStale(c.now(), c.ttl) {
		stats.ProductList = ProductListPopulated
		stats.ProductListSize = len(c.list.value)
	}
	c.mu.Unlock()

	stats.Hits = atomic.LoadInt64(&c.hits)
	stats.Misses = atomic.LoadInt64(&c.misses)
	return stats
}

// Close stops the cleanup goroutine
func (c *CatalogCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

func (c *CatalogCache) recordLookup(name string, hit bool) {
	if hit {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	if c.recorder != nil {
		c.recorder.ObserveCacheLookup(name, hit)
	}
}

// cleanupStale periodically evicts stale cards
func (c *CatalogCache) cleanupStale() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if removed := c.evictStale(); removed > 0 {
				c.logger.Debug("Evicted stale product cards", zap.Int("removed", removed))
			}
		}
	}
}

func (c *CatalogCache) evictStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, entry := range c.cards {
		if entry.isStale(now, c.ttl) {
			delete(c.cards, id)
			removed++
		}
	}
	if c.list != nil && c.list.isStale(now, c.ttl) {
		c.list = nil
	}
	return removed
}
