// Package cerebras implements the provider.Provider interface for the
// Cerebras inference API.
package cerebras

import (
	"github.com/casualjim/chartwise/provider"
	"github.com/casualjim/chartwise/provider/internal/chatcompat"
	"github.com/fogfish/opts"
)

const (
	ID             = "cerebras"
	SecretKeyName  = "cerebrasApiKey"
	DefaultModel   = "gpt-oss-120b"
	DefaultBaseURL = "https://api.cerebras.ai/v1"
)

// Descriptor is the registration metadata of the Cerebras provider.
func Descriptor() provider.Descriptor {
	return provider.Descriptor{
		ID:            ID,
		DisplayName:   "Cerebras",
		SecretKeyName: SecretKeyName,
		DefaultModel:  DefaultModel,
		Description:   "Cerebras wafer-scale inference, OpenAI-compatible, schema in the prompt",
	}
}

var _ provider.Provider = (*Provider)(nil)

// Provider calls the Cerebras chat completions API.
type Provider struct {
	*chatcompat.Client
}

// New creates the Cerebras provider. Cerebras rejects response_format for
// several hosted models, so the request relies on the prompt instruction alone.
func New(secrets provider.SecretStore, options ...opts.Option[provider.Config]) (*Provider, error) {
	cfg, err := provider.NewConfig(DefaultBaseURL, options...)
	if err != nil {
		return nil, err
	}
	base, err := provider.NewBase(Descriptor(), secrets, cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{
		Client: &chatcompat.Client{
			Base:   base,
			Path:   "/chat/completions",
			Schema: provider.EmbedSchemaInPrompt{},
		},
	}, nil
}
