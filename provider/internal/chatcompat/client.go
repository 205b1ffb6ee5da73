// Package chatcompat is the OpenAI-compatible chat completions client shared by
// vendors that fold the output schema into the system prompt.
package chatcompat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casualjim/chartwise/pkg/jsonx"
	"github.com/casualjim/chartwise/provider"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const defaultTemperature = 0.1

// Client implements CallAPI for an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	*provider.Base

	// Path is appended to the configured base URL.
	Path string
	// Schema folds the output schema into the request.
	Schema provider.SchemaStrategy
	// JSONMode sets response_format to json_object.
	JSONMode bool
}

// CallAPI sends one chat completion and normalizes the answer.
func (c *Client) CallAPI(ctx context.Context, params provider.CompletionParams) (*provider.Response, error) {
	key, slot, err := c.NextAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	strategy := c.Schema
	if strategy == nil {
		strategy = provider.EmbedSchemaInPrompt{}
	}
	systemPrompt, err := strategy.SystemPrompt(params.SystemPrompt, params.Schema)
	if err != nil {
		return nil, err
	}

	model := c.Model(params.Options)
	body, err := BuildRequest(model, systemPrompt, params.UserPrompt, params.Options, c.JSONMode)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", c.DisplayName(), err)
	}

	c.Preflight(ctx, model, systemPrompt, params.UserPrompt)
	start := time.Now()
	data, err := c.PostJSON(ctx, c.Config().BaseURL()+c.Path, http.Header{
		"Authorization": {"Bearer " + key},
	}, body)
	if err != nil {
		return nil, err
	}

	resp, err := ParseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", provider.ErrEmptyResponse, c.DisplayName(), err)
	}
	resp.KeyUsed = slot
	return c.Finish(ctx, start, model, resp)
}

// BuildRequest renders the chat completions request body.
func BuildRequest(model, systemPrompt, userPrompt string, options provider.Options, jsonMode bool) ([]byte, error) {
	temperature := defaultTemperature
	if options.Temperature != nil {
		temperature = *options.Temperature
	}

	values := []struct {
		path  string
		value any
		set   bool
	}{
		{"model", model, true},
		{"messages.0.role", "system", true},
		{"messages.0.content", systemPrompt, true},
		{"messages.1.role", "user", true},
		{"messages.1.content", userPrompt, true},
		{"temperature", temperature, true},
		{"top_p", deref(options.TopP), options.TopP != nil},
		{"max_completion_tokens", options.MaxOutputTokens, options.MaxOutputTokens > 0},
		{"reasoning_effort", string(options.ReasoningEffort), options.ReasoningEffort.Valid()},
		{"seed", deref(options.Seed), options.Seed != nil},
		{"response_format.type", "json_object", jsonMode},
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
	return jsonx.MergeObject(body, options.AdditionalParams)
}

// ParseResponse reads the first choice and the usage block. When the content
// is empty but the model put its answer in a reasoning field, that text is
// promoted and the response is flagged as reasoning.
func ParseResponse(data []byte) (*provider.Response, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	message := doc.Get("choices.0.message")
	if !message.Exists() {
		return nil, fmt.Errorf("response has no choices")
	}

	resp := provider.NewResponse(message.Get("content").String())
	if strings.TrimSpace(resp.Content()) == "" {
		for _, field := range []string{"reasoning", "reasoning_content"} {
			if text := message.Get(field).String(); strings.TrimSpace(text) != "" {
				resp.Choices[0].Message.Content = text
				resp.IsReasoning = true
				break
			}
		}
	}

	resp.Model = doc.Get("model").String()
	resp.Usage = provider.Usage{
		PromptTokens:     doc.Get("usage.prompt_tokens").Int(),
		CompletionTokens: doc.Get("usage.completion_tokens").Int(),
		TotalTokens:      doc.Get("usage.total_tokens").Int(),
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
