// Package groq implements the provider.Provider interface for Groq's
// OpenAI-compatible chat completions API.
//
// Groq has no native schema support for every model it hosts, so the output
// schema is folded into the system prompt and JSON mode is switched on. Two API
// keys can be configured; calls alternate between them.
package groq

import (
	"github.com/casualjim/chartwise/provider"
	"github.com/casualjim/chartwise/provider/internal/chatcompat"
	"github.com/fogfish/opts"
)

const (
	ID                     = "groq"
	SecretKeyName          = "groqApiKey"
	SecondarySecretKeyName = "groqApiKey2"
	DefaultModel           = "openai/gpt-oss-120b"
	DefaultBaseURL         = "https://api.groq.com/openai/v1"
)

// Descriptor is the registration metadata of the Groq provider.
func Descriptor() provider.Descriptor {
	return provider.Descriptor{
		ID:                     ID,
		DisplayName:            "Groq",
		SecretKeyName:          SecretKeyName,
		SecondarySecretKeyName: SecondarySecretKeyName,
		DefaultModel:           DefaultModel,
		Description:            "Groq LPU inference, OpenAI-compatible, JSON mode with the schema in the prompt",
	}
}

var _ provider.Provider = (*Provider)(nil)

// Provider calls the Groq chat completions API.
type Provider struct {
	*chatcompat.Client
}

// New creates a Groq provider reading its keys from secrets.
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
			Base:     base,
			Path:     "/chat/completions",
			Schema:   provider.EmbedSchemaInPrompt{},
			JSONMode: true,
		},
	}, nil
}
