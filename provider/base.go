package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

// Base implements the descriptor, credential and transport plumbing shared by
// every adapter. Vendor packages embed it and only add CallAPI.
type Base struct {
	desc    Descriptor
	secrets SecretStore
	keys    *KeyRotator
	cfg     Config
}

// NewBase validates the descriptor and wires the secret store and transport.
func NewBase(desc Descriptor, secrets SecretStore, cfg Config) (*Base, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if secrets == nil {
		return nil, fmt.Errorf("%w: secret store is required for %s", ErrInvalidConfig, desc.ID)
	}
	if cfg.defaultModel != "" {
		desc.DefaultModel = cfg.defaultModel
	}
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}

	b := &Base{
		desc:    desc,
		secrets: secrets,
		cfg:     cfg,
	}
	if desc.SecondarySecretKeyName != "" {
		b.keys = NewKeyRotator(desc.SecretKeyName, desc.SecondarySecretKeyName)
	}
	return b, nil
}

// ID returns the registry key of the provider.
func (b *Base) ID() string { return b.desc.ID }

// DisplayName returns the vendor name used in messages.
func (b *Base) DisplayName() string { return b.desc.DisplayName }

// SecretKeyName returns the secret holding the primary API key.
func (b *Base) SecretKeyName() string { return b.desc.SecretKeyName }

// DefaultModel returns the model used when a call does not override it.
func (b *Base) DefaultModel() string { return b.desc.DefaultModel }

// Descriptor returns the registration metadata.
func (b *Base) Descriptor() Descriptor { return b.desc }

// Config returns the transport settings.
func (b *Base) Config() Config { return b.cfg }

// Secret returns the primary API key.
func (b *Base) Secret(ctx context.Context) (string, error) {
	value, err := b.secrets.Get(ctx, b.desc.SecretKeyName)
	if err != nil {
		return "", fmt.Errorf("reading %s secret: %w", b.desc.DisplayName, err)
	}
	if value = strings.TrimSpace(value); value == "" {
		return "", missingCredential(b.desc.DisplayName, b.desc.SecretKeyName)
	}
	return value, nil
}

// HasSecret reports whether the primary or, for rotating providers, the
// secondary key is present.
func (b *Base) HasSecret(ctx context.Context) bool {
	if _, err := b.Secret(ctx); err == nil {
		return true
	}
	if b.desc.SecondarySecretKeyName == "" {
		return false
	}
	value, err := b.secrets.Get(ctx, b.desc.SecondarySecretKeyName)
	return err == nil && strings.TrimSpace(value) != ""
}

// NextAPIKey returns the key to use for the next call and its 1-based slot.
// Providers without a secondary key always use the primary and report slot 0.
func (b *Base) NextAPIKey(ctx context.Context) (string, int, error) {
	if b.keys == nil {
		key, err := b.Secret(ctx)
		return key, 0, err
	}
	key, slot, err := b.keys.Next(ctx, b.secrets)
	if err != nil {
		return "", 0, fmt.Errorf("reading %s secret: %w", b.desc.DisplayName, err)
	}
	if key == "" {
		return "", 0, missingCredential(b.desc.DisplayName, b.desc.SecretKeyName)
	}
	return key, slot, nil
}

// Model resolves the model for a call.
func (b *Base) Model(options Options) string {
	if m := strings.TrimSpace(options.Model); m != "" {
		return m
	}
	return b.desc.DefaultModel
}

// PostJSON sends body to url and returns the response body of a 2xx answer.
// Non-2xx answers are decoded into *RateLimitError or *HTTPError.
func (b *Base) PostJSON(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	if err := b.cfg.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request not sent: %w", b.desc.DisplayName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", b.desc.DisplayName, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.cfg.httpClient.Do(req)
	if err != nil {
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		return nil, fmt.Errorf("%s request failed: %w", b.desc.DisplayName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", b.desc.DisplayName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, DecodeHTTPError(b.desc.DisplayName, resp, data)
	}
	return data, nil
}

// Finish stamps the provider, model and duration on resp, enforces the
// non-empty content contract and logs post-call diagnostics.
func (b *Base) Finish(ctx context.Context, start time.Time, model string, resp *Response) (*Response, error) {
	if resp == nil || strings.TrimSpace(resp.Content()) == "" {
		return nil, fmt.Errorf("%w: %s returned no content", ErrEmptyResponse, b.desc.DisplayName)
	}
	resp.Provider = b.desc.ID
	if resp.Model == "" {
		resp.Model = model
	}
	resp.DurationMS = time.Since(start).Milliseconds()
	resp.Usage.completeUsage()
	logCompletion(ctx, resp)
	return resp, nil
}

// Preflight logs the estimated prompt size before a call.
func (b *Base) Preflight(ctx context.Context, model string, systemPrompt, userPrompt string) {
	logPreflight(ctx, b.desc.ID, model, systemPrompt, userPrompt)
}

// redactURL hides credentials passed in the query string.
func redactURL(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("key") {
		return raw
	}
	q.Set("key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
