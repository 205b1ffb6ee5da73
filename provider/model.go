package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/chartwise/pkg/jsonx"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// Provider defines the capability set every AI vendor adapter implements
// (e.g., OpenAI, Gemini, Groq, Cerebras). Implementations handle the specifics
// of authenticating, shaping the request and normalizing the response, while
// the rest of the application only ever sees a *Response.
type Provider interface {
	// ID is the unique registry key for the provider, e.g. "openai".
	ID() string
	// DisplayName is the human readable vendor name used in messages.
	DisplayName() string
	// SecretKeyName is the secret store key holding the primary API key.
	SecretKeyName() string
	// DefaultModel is the model used when the caller does not override it.
	DefaultModel() string
	// Descriptor returns the immutable registration metadata.
	Descriptor() Descriptor

	// Secret returns the primary API key or ErrMissingCredential.
	Secret(ctx context.Context) (string, error)
	// HasSecret reports whether a usable API key is present.
	HasSecret(ctx context.Context) bool

	// CallAPI performs one structured-output completion.
	CallAPI(ctx context.Context, params CompletionParams) (*Response, error)
}

// Descriptor is the registration metadata of a provider. It is immutable once
// the provider has been constructed.
type Descriptor struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	SecretKeyName string `json:"secretKeyName"`
	// SecondarySecretKeyName enables dual-key round-robin when set.
	SecondarySecretKeyName string `json:"secondarySecretKeyName,omitempty"`
	DefaultModel           string `json:"defaultModel"`
	Description            string `json:"description,omitempty"`
}

// Validate checks the fields required to construct a provider.
func (d Descriptor) Validate() error {
	var missing []string
	if strings.TrimSpace(d.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(d.DisplayName) == "" {
		missing = append(missing, "displayName")
	}
	if strings.TrimSpace(d.SecretKeyName) == "" {
		missing = append(missing, "secretKeyName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// CompletionParams encapsulates everything needed for one analysis call.
type CompletionParams struct {
	// SystemPrompt carries the category instructions.
	SystemPrompt string

	// UserPrompt carries the patient data, usually XML or plain prose.
	UserPrompt string

	// Schema describes the JSON document the model must produce.
	Schema *StructuredOutput

	// Options tune the request; zero values mean vendor defaults.
	Options Options
}

// ReasoningEffort hints how much thinking a reasoning model should do.
// Providers that do not support it ignore it.
type ReasoningEffort string

const (
	ReasoningEffortLow    ReasoningEffort = "low"
	ReasoningEffortMedium ReasoningEffort = "medium"
	ReasoningEffortHigh   ReasoningEffort = "high"
)

// Valid reports whether e is one of the recognized levels.
func (e ReasoningEffort) Valid() bool {
	switch e {
	case ReasoningEffortLow, ReasoningEffortMedium, ReasoningEffortHigh:
		return true
	}
	return false
}

// Options are the per-call tuning knobs recognized by the adapters.
type Options struct {
	// Model overrides the provider default model.
	Model string `json:"model,omitempty"`
	// Temperature is the sampling randomness, typically in [0, 2].
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	// MaxOutputTokens caps the completion length; 0 leaves it to the vendor.
	MaxOutputTokens int             `json:"maxOutputTokens,omitempty"`
	ReasoningEffort ReasoningEffort `json:"reasoningEffort,omitempty"`
	// Seed is forwarded to vendors that support deterministic sampling.
	Seed *int64 `json:"seed,omitempty"`
	// AdditionalParams are merged into the vendor request body last, so they
	// win over anything the adapter set.
	AdditionalParams map[string]any `json:"additionalParams,omitempty"`
}

// StructuredOutput defines a schema for formatted AI responses.
type StructuredOutput struct {
	// Name identifies this output format
	Name string `json:"name"`

	// Description explains the purpose and usage of this format
	Description string `json:"description,omitempty"`

	// Schema defines the JSON structure that responses should follow
	Schema *jsonschema.Schema `json:"schema"`
}

// SchemaJSON returns the JSON encoding of the schema document.
func (s *StructuredOutput) SchemaJSON() ([]byte, error) {
	if s == nil || s.Schema == nil {
		return nil, fmt.Errorf("structured output has no schema")
	}
	return json.Marshal(s.Schema)
}

// SchemaMap returns the schema as a dynamic JSON object.
func (s *StructuredOutput) SchemaMap() (map[string]any, error) {
	if s == nil || s.Schema == nil {
		return nil, fmt.Errorf("structured output has no schema")
	}
	return jsonx.ToDynamicJSON(s.Schema)
}
