// Package providers keeps the set of AI providers the application can call.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/chartwise/internal/registry"
	"github.com/casualjim/chartwise/provider"
	"github.com/casualjim/chartwise/provider/cerebras"
	"github.com/casualjim/chartwise/provider/gemini"
	"github.com/casualjim/chartwise/provider/groq"
	"github.com/casualjim/chartwise/provider/openai"
	"github.com/fogfish/opts"
)

// Registry maps provider ids to providers, preserving registration order.
// It is safe for concurrent use.
type Registry struct {
	providers registry.Registry[provider.Provider]
}

// NewRegistry creates an empty registry. Call RegisterBuiltIns to add the bundled vendors.
func NewRegistry() *Registry {
	return &Registry{
		providers: registry.New[provider.Provider](),
	}
}

// Register adds p. A provider with the same id is replaced and a warning logged.
func (r *Registry) Register(p provider.Provider) {
	if r.providers.Add(p.ID(), p) {
		slog.Warn("provider already registered, overwriting", slog.String("provider", p.ID()))
		return
	}
	slog.Debug("provider registered", slog.String("provider", p.ID()), slog.String("model", p.DefaultModel()))
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (provider.Provider, bool) {
	p, ok := r.providers.Get(id)
	if !ok {
		slog.Warn("provider not found", slog.String("provider", id))
	}
	return p, ok
}

// All returns the registered providers in registration order.
func (r *Registry) All() []provider.Provider {
	return r.providers.Values()
}

// IDs returns the registered provider ids in registration order.
func (r *Registry) IDs() []string {
	return r.providers.Keys()
}

// Has reports whether a provider is registered under id.
func (r *Registry) Has(id string) bool {
	return r.providers.Has(id)
}

// Unregister removes the provider and reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	return r.providers.Del(id)
}

// ValidateAll reports, per provider id, whether a usable credential is stored.
func (r *Registry) ValidateAll(ctx context.Context) map[string]bool {
	result := make(map[string]bool, r.providers.Len())
	for _, p := range r.providers.Values() {
		result[p.ID()] = p.HasSecret(ctx)
	}
	return result
}

// BuiltInOption configures the transport of the built-in providers.
type BuiltInOption = opts.Option[builtIns]

type builtIns struct {
	common      []opts.Option[provider.Config]
	perProvider map[string][]opts.Option[provider.Config]
}

// WithConfig applies options to every built-in provider.
func WithConfig(options ...opts.Option[provider.Config]) BuiltInOption {
	return opts.Type[builtIns](func(b *builtIns) error {
		b.common = append(b.common, options...)
		return nil
	})
}

// WithProviderConfig applies options to the built-in provider with the given id.
func WithProviderConfig(id string, options ...opts.Option[provider.Config]) BuiltInOption {
	return opts.Type[builtIns](func(b *builtIns) error {
		if b.perProvider == nil {
			b.perProvider = make(map[string][]opts.Option[provider.Config])
		}
		b.perProvider[id] = append(b.perProvider[id], options...)
		return nil
	})
}

type constructor func(provider.SecretStore, ...opts.Option[provider.Config]) (provider.Provider, error)

func adapt[P provider.Provider](fn func(provider.SecretStore, ...opts.Option[provider.Config]) (P, error)) constructor {
	return func(secrets provider.SecretStore, options ...opts.Option[provider.Config]) (provider.Provider, error) {
		return fn(secrets, options...)
	}
}

// builtInOrder lists the bundled vendors, fastest first.
var builtInOrder = []struct {
	id  string
	new constructor
}{
	{cerebras.ID, adapt(cerebras.New)},
	{groq.ID, adapt(groq.New)},
	{gemini.ID, adapt(gemini.New)},
	{openai.ID, adapt(openai.New)},
}

// BuiltInIDs returns the ids of the bundled vendors in registration order.
func BuiltInIDs() []string {
	ids := make([]string, len(builtInOrder))
	for i, b := range builtInOrder {
		ids[i] = b.id
	}
	return ids
}

// RegisterBuiltIns constructs and registers the bundled vendors, reading their
// API keys from secrets.
func (r *Registry) RegisterBuiltIns(secrets provider.SecretStore, options ...BuiltInOption) error {
	var cfg builtIns
	if err := opts.Apply(&cfg, options); err != nil {
		return err
	}

	for _, b := range builtInOrder {
		providerOpts := append(append([]opts.Option[provider.Config]{}, cfg.common...), cfg.perProvider[b.id]...)
		p, err := b.new(secrets, providerOpts...)
		if err != nil {
			return fmt.Errorf("creating provider %s: %w", b.id, err)
		}
		r.Register(p)
	}
	return nil
}
