package vademecum

import (
	"errors"
	"net/url"
	"time"

	"github.com/vitaguide/backend/internal/infrastructure/config"
)

const (
	// DefaultPageSize is the listing page size when none is configured
	DefaultPageSize = 100
	// DefaultTimeout bounds every vendor request
	DefaultTimeout = 30 * time.Second
)

// Errors for Vademecum configuration
var (
	ErrConfigMissingBaseURL = errors.New("vademecum: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("vademecum: base URL must be absolute")
)

// Config holds configuration for the Vademecum catalog API
type Config struct {
	// BaseURL is the API root, e.g. https://api.vademecum.example/v1
	BaseURL string
	// APIKey is sent as X-Api-Key when set
	APIKey string
	// PageSize is the listing page size
	PageSize int
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// RequestsPerSecond caps outbound requests; zero or less disables limiting
	RequestsPerSecond float64
	// Burst is the limiter bucket size
	Burst int
}

// NewConfig builds a client configuration from the application vendor section
func NewConfig(vc config.VendorConfig) *Config {
	return &Config{
		BaseURL:           vc.BaseURL,
		APIKey:            vc.APIKey,
		PageSize:          vc.PageSize,
		Timeout:           vc.Timeout,
		RequestsPerSecond: vc.RequestsPerSecond,
		Burst:             vc.Burst,
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return nil
}
