package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/fogfish/opts"
	"golang.org/x/time/rate"
)

// HTTPClient is the fetch capability adapters depend on.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// Config carries the transport settings shared by all adapters.
type Config struct {
	baseURL      string
	defaultModel string
	httpClient   HTTPClient
	limiter      *rate.Limiter
}

var (
	// WithBaseURL overrides the vendor endpoint, mostly for tests and proxies.
	WithBaseURL = opts.ForName[Config, string]("baseURL")
	// WithDefaultModel overrides the descriptor's default model.
	WithDefaultModel = opts.ForName[Config, string]("defaultModel")
)

// WithHTTPClient replaces the HTTP client used for vendor calls.
func WithHTTPClient(client HTTPClient) opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		c.httpClient = client
		return nil
	})
}

// WithRateLimit throttles outgoing calls to rps requests per second.
// A non-positive rps disables the limiter.
func WithRateLimit(rps float64, burst int) opts.Option[Config] {
	return opts.Type[Config](func(c *Config) error {
		if rps <= 0 {
			c.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	})
}

// NewConfig applies options over the vendor defaults.
func NewConfig(baseURL string, options ...opts.Option[Config]) (Config, error) {
	cfg := Config{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	if err := opts.Apply(&cfg, options); err != nil {
		return Config{}, err
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}
	return cfg, nil
}

// BaseURL is the vendor endpoint without a trailing slash.
func (c Config) BaseURL() string { return c.baseURL }

// HTTPClient is the client vendor calls go through.
func (c Config) HTTPClient() HTTPClient { return c.httpClient }

// Wait blocks until the limiter admits one request or ctx is done.
func (c Config) Wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
