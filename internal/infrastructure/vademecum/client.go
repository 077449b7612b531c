package vademecum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitaguide/backend/internal/domain/integration"
)

// maxResponseSize is the maximum accepted response body (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Cache is the read-through cache consulted by the client
type Cache interface {
	GetCard(ctx context.Context, vendorID string) (*integration.VendorProductCard, bool)
	SetCard(ctx context.Context, vendorID string, card *integration.VendorProductCard)
	GetProductList() ([]integration.VendorProduct, bool)
	SetProductList(products []integration.VendorProduct)
}

// Client reads the Vademecum product catalog
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	logger     *zap.Logger
}

var _ integration.CatalogClient = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithCache enables the listing and card cache
func WithCache(c Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// WithLimiter replaces the request limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(cl *Client) {
		if l != nil {
			cl.limiter = l
		}
	}
}

// NewClient creates a catalog client for the given configuration
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, integration.ErrVendorNotConfigured
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("vademecum")
	return c, nil
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// FetchAllProducts pages through the listing starting at page 1 and stops at
// the first page whose product array is empty.
func (c *Client) FetchAllProducts(ctx context.Context) ([]integration.VendorProduct, error) {
	if c.cache != nil {
		if products, ok := c.cache.GetProductList(); ok {
			c.logger.Debug("Product list served from cache", zap.Int("count", len(products)))
			return products, nil
		}
	}

	start := time.Now()
	all := make([]integration.VendorProduct, 0)
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(c.config.PageSize))

		body, err := c.doRequest(ctx, "/products", query)
		if err != nil {
			c.logger.Error("Failed to fetch product page", zap.Int("page", page), zap.Error(err))
			return nil, fmt.Errorf("%w: page %d: %w", integration.ErrFetchProducts, page, err)
		}

		products, err := parseProductPage(body)
		if err != nil {
			c.logger.Error("Malformed product page", zap.Int("page", page), zap.Error(err))
			return nil, fmt.Errorf("%w: page %d: %w", integration.ErrFetchProducts, page, err)
		}
		if parsePageLength(body) == 0 {
			break
		}
		all = append(all, products...)
	}

	c.logger.Info("Fetched product list",
		zap.Int("count", len(all)),
		zap.Duration("duration", time.Since(start)),
	)

	if c.cache != nil {
		c.cache.SetProductList(all)
	}
	return all, nil
}

// ---------------------------------------------------------------------------
// Detail card
// ---------------------------------------------------------------------------

// FetchProductCard returns the detail card for vendorID. A missing product
// and every transport or decoding failure yield nil.
func (c *Client) FetchProductCard(ctx context.Context, vendorID string) *integration.VendorProductCard {
	if c.cache != nil {
		if card, ok := c.cache.GetCard(ctx, vendorID); ok {
			return card
		}
	}

	body, err := c.doRequest(ctx, "/products/"+url.PathEscape(vendorID), nil)
	if err != nil {
		if errors.Is(err, integration.ErrVendorNotFound) {
			c.logger.Debug("Product card not found", zap.String("vendor_id", vendorID))
		} else {
			c.logger.Warn("Failed to fetch product card", zap.String("vendor_id", vendorID), zap.Error(err))
		}
		return nil
	}

	card, err := parseProductCard(body, vendorID)
	if err != nil {
		c.logger.Warn("Malformed product card", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil
	}

	if c.cache != nil {
		c.cache.SetCard(ctx, vendorID, card)
	}
	return card
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doRequest performs a rate-limited GET and classifies failures into the
// integration sentinel errors.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrVendorUnavailable, err)
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("vademecum: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrVendorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", integration.ErrVendorUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, integration.ErrVendorNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrVendorRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrVendorUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrVendorRequestFailed, resp.StatusCode)
	}

	return body, nil
}
