package chatcompat

import (
	"testing"

	"github.com/casualjim/chartwise/provider"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestBuildRequest(t *testing.T) {
	body, err := BuildRequest("llama", "sys", "user", provider.Options{
		TopP:             swag.Float64(0.5),
		MaxOutputTokens:  1024,
		ReasoningEffort:  provider.ReasoningEffortMedium,
		Seed:             swag.Int64(42),
		AdditionalParams: map[string]any{"temperature": 0.9, "service_tier": "flex"},
	}, true)
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	assert.Equal(t, "llama", doc.Get("model").String())
	assert.Equal(t, "system", doc.Get("messages.0.role").String())
	assert.Equal(t, "sys", doc.Get("messages.0.content").String())
	assert.Equal(t, "user", doc.Get("messages.1.role").String())
	assert.Equal(t, "user", doc.Get("messages.1.content").String())
	assert.Equal(t, 0.9, doc.Get("temperature").Float())
	assert.Equal(t, 0.5, doc.Get("top_p").Float())
	assert.Equal(t, int64(1024), doc.Get("max_completion_tokens").Int())
	assert.Equal(t, "medium", doc.Get("reasoning_effort").String())
	assert.Equal(t, int64(42), doc.Get("seed").Int())
	assert.Equal(t, "json_object", doc.Get("response_format.type").String())
	assert.Equal(t, "flex", doc.Get("service_tier").String())
}

func TestBuildRequest_Defaults(t *testing.T) {
	body, err := BuildRequest("m", "sys", "user", provider.Options{}, false)
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	assert.Equal(t, 0.1, doc.Get("temperature").Float())
	for _, absent := range []string{"top_p", "max_completion_tokens", "reasoning_effort", "seed", "response_format"} {
		assert.False(t, doc.Get(absent).Exists(), absent)
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("content", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"model":"m","choices":[{"message":{"content":"{}"}}],
			"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
		require.NoError(t, err)
		assert.Equal(t, "{}", resp.Content())
		assert.Equal(t, "m", resp.Model)
		assert.False(t, resp.IsReasoning)
		assert.Equal(t, provider.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}, resp.Usage)
	})

	t.Run("reasoning promoted", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"choices":[{"message":{"content":"","reasoning":"{\"a\":1}"}}]}`))
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, resp.Content())
		assert.True(t, resp.IsReasoning)
	})

	t.Run("reasoning_content promoted", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"choices":[{"message":{"content":null,"reasoning_content":"thinking"}}]}`))
		require.NoError(t, err)
		assert.Equal(t, "thinking", resp.Content())
		assert.True(t, resp.IsReasoning)
	})

	t.Run("no choices", func(t *testing.T) {
		_, err := ParseResponse([]byte(`{"choices":[]}`))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseResponse([]byte(`<html>`))
		assert.Error(t, err)
	})
}
