// Package gemini implements the provider.Provider interface for Google's
// Gemini generateContent API.
//
// The output schema travels in generationConfig.responseJsonSchema and the API
// key in the key query parameter. Two keys can be configured; calls alternate
// between them.
package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/casualjim/chartwise/pkg/jsonx"
	"github.com/casualjim/chartwise/provider"
	"github.com/fogfish/opts"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	ID                     = "gemini"
	SecretKeyName          = "geminiApiKey"
	SecondarySecretKeyName = "geminiApiKey2"
	DefaultModel           = "gemini-2.5-flash"
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta/models"
)

// thinkingBudgets maps a reasoning effort onto generationConfig.thinkingConfig.thinkingBudget.
var thinkingBudgets = map[provider.ReasoningEffort]int{
	provider.ReasoningEffortLow:    1024,
	provider.ReasoningEffortMedium: 8192,
	provider.ReasoningEffortHigh:   24576,
}

// Descriptor is the registration metadata of the Gemini provider.
func Descriptor() provider.Descriptor {
	return provider.Descriptor{
		ID:                     ID,
		DisplayName:            "Gemini",
		SecretKeyName:          SecretKeyName,
		SecondarySecretKeyName: SecondarySecretKeyName,
		DefaultModel:           DefaultModel,
		Description:            "Google Gemini with native response JSON schema",
	}
}

var _ provider.Provider = (*Provider)(nil)

// Provider calls the Gemini generateContent API.
type Provider struct {
	*provider.Base
}

// New creates a Gemini provider reading its keys from secrets.
func New(secrets provider.SecretStore, options ...opts.Option[provider.Config]) (*Provider, error) {
	cfg, err := provider.NewConfig(DefaultBaseURL, options...)
	if err != nil {
		return nil, err
	}
	base, err := provider.NewBase(Descriptor(), secrets, cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{Base: base}, nil
}

// CallAPI sends one generateContent request with the next API key and
// normalizes the answer. Thought parts are left out of the content.
func (p *Provider) CallAPI(ctx context.Context, params provider.CompletionParams) (*provider.Response, error) {
	key, slot, err := p.NextAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	model := p.Model(params.Options)
	body, err := buildRequest(&params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", p.DisplayName(), err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		p.Config().BaseURL(), url.PathEscape(model), url.QueryEscape(key))

	p.Preflight(ctx, model, params.SystemPrompt, params.UserPrompt)
	start := time.Now()
	data, err := p.PostJSON(ctx, endpoint, nil, body)
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", provider.ErrEmptyResponse, p.DisplayName(), err)
	}
	resp.KeyUsed = slot
	return p.Finish(ctx, start, model, resp)
}

func buildRequest(params *provider.CompletionParams) ([]byte, error) {
	options := params.Options
	temperature := 0.1
	if options.Temperature != nil {
		temperature = *options.Temperature
	}
	budget, thinking := thinkingBudgets[options.ReasoningEffort]

	values := []struct {
		path  string
		value any
		set   bool
	}{
		{"systemInstruction.parts.0.text", params.SystemPrompt, true},
		{"contents.0.role", "user", true},
		{"contents.0.parts.0.text", params.UserPrompt, true},
		{"generationConfig.responseMimeType", "application/json", true},
		{"generationConfig.temperature", temperature, true},
		{"generationConfig.topP", deref(options.TopP), options.TopP != nil},
		{"generationConfig.maxOutputTokens", options.MaxOutputTokens, options.MaxOutputTokens > 0},
		{"generationConfig.seed", deref(options.Seed), options.Seed != nil},
		{"generationConfig.thinkingConfig.thinkingBudget", budget, thinking},
	}

	body := []byte(`{}`)
	var err error
	for _, v := range values {
		if !v.set {
			continue
		}
		if body, err = sjson.SetBytes(body, v.path, v.value); err != nil {
			return nil, fmt.Errorf("setting %s: %w", v.path, err)
		}
	}

	if params.Schema != nil {
		raw, err := params.Schema.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("serializing schema %q: %w", params.Schema.Name, err)
		}
		if body, err = sjson.SetRawBytes(body, "generationConfig.responseJsonSchema", raw); err != nil {
			return nil, err
		}
	}
	return jsonx.MergeObject(body, options.AdditionalParams)
}

func parseResponse(data []byte) (*provider.Response, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if reason := doc.Get("promptFeedback.blockReason").String(); reason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", reason)
	}

	candidate := doc.Get("candidates.0")
	if !candidate.Exists() {
		return nil, fmt.Errorf("response has no candidates")
	}

	var text strings.Builder
	candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if !part.Get("thought").Bool() {
			text.WriteString(part.Get("text").String())
		}
		return true
	})
	if strings.TrimSpace(text.String()) == "" {
		if reason := candidate.Get("finishReason").String(); reason != "" && reason != "STOP" {
			return nil, fmt.Errorf("generation stopped: %s", reason)
		}
	}

	resp := provider.NewResponse(text.String())
	resp.Model = doc.Get("modelVersion").String()
	resp.Usage = provider.Usage{
		PromptTokens:     doc.Get("usageMetadata.promptTokenCount").Int(),
		CompletionTokens: doc.Get("usageMetadata.candidatesTokenCount").Int() + doc.Get("usageMetadata.thoughtsTokenCount").Int(),
		TotalTokens:      doc.Get("usageMetadata.totalTokenCount").Int(),
	}
	return resp, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
