package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/casualjim/chartwise/provider"
	"github.com/go-openapi/swag"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const okReply = `{
	"candidates": [{
		"content": {"role": "model", "parts": [
			{"text": "planning the answer", "thought": true},
			{"text": "{\"medications\":"},
			{"text": "[]}"}
		]},
		"finishReason": "STOP"
	}],
	"usageMetadata": {"promptTokenCount": 90, "candidatesTokenCount": 12, "thoughtsTokenCount": 30, "totalTokenCount": 132},
	"modelVersion": "gemini-2.5-flash"
}`

func secretStore(values map[string]string) provider.SecretStore {
	return provider.SecretStoreFunc(func(_ context.Context, key string) (string, error) {
		return values[key], nil
	})
}

type request struct {
	path string
	key  string
	body []byte
}

func setupTestServer(t *testing.T, secrets map[string]string, status int, reply string) (*Provider, *[]request) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []request
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		requests = append(requests, request{path: r.URL.Path, key: r.URL.Query().Get("key"), body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(server.Close)

	p, err := New(secretStore(secrets), provider.WithBaseURL(server.URL+"/v1beta/models"))
	require.NoError(t, err)
	return p, &requests
}

func TestProvider_CallAPI(t *testing.T) {
	p, requests := setupTestServer(t, map[string]string{SecretKeyName: "AIza-1"}, http.StatusOK, okReply)

	resp, err := p.CallAPI(context.Background(), provider.CompletionParams{
		SystemPrompt: "List active medications.",
		UserPrompt:   "<medications/>",
		Schema: &provider.StructuredOutput{
			Name:   "medications",
			Schema: &jsonschema.Schema{Type: "object", Required: []string{"medications"}},
		},
		Options: provider.Options{
			TopP:            swag.Float64(0.8),
			MaxOutputTokens: 4096,
			ReasoningEffort: provider.ReasoningEffortMedium,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"medications":[]}`, resp.Content())
	assert.Equal(t, ID, resp.Provider)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, provider.Usage{PromptTokens: 90, CompletionTokens: 42, TotalTokens: 132}, resp.Usage)
	assert.Equal(t, 1, resp.KeyUsed)

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", got.path)
	assert.Equal(t, "AIza-1", got.key)

	req := gjson.ParseBytes(got.body)
	assert.Equal(t, "List active medications.", req.Get("systemInstruction.parts.0.text").String())
	assert.Equal(t, "<medications/>", req.Get("contents.0.parts.0.text").String())
	assert.Equal(t, "application/json", req.Get("generationConfig.responseMimeType").String())
	assert.Equal(t, "object", req.Get("generationConfig.responseJsonSchema.type").String())
	assert.Equal(t, 0.1, req.Get("generationConfig.temperature").Float())
	assert.Equal(t, 0.8, req.Get("generationConfig.topP").Float())
	assert.Equal(t, int64(4096), req.Get("generationConfig.maxOutputTokens").Int())
	assert.Equal(t, int64(8192), req.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
}

func TestProvider_CallAPI_KeyRotation(t *testing.T) {
	p, requests := setupTestServer(t, map[string]string{
		SecretKeyName:          "AIza-1",
		SecondarySecretKeyName: "AIza-2",
	}, http.StatusOK, okReply)

	for range 3 {
		_, err := p.CallAPI(context.Background(), provider.CompletionParams{SystemPrompt: "s", UserPrompt: "u"})
		require.NoError(t, err)
	}

	var keys []string
	for _, r := range *requests {
		keys = append(keys, r.key)
	}
	assert.Equal(t, []string{"AIza-1", "AIza-2", "AIza-1"}, keys)
}

func TestProvider_CallAPI_ModelOverride(t *testing.T) {
	p, requests := setupTestServer(t, map[string]string{SecretKeyName: "AIza-1"}, http.StatusOK, okReply)

	_, err := p.CallAPI(context.Background(), provider.CompletionParams{
		SystemPrompt: "s",
		UserPrompt:   "u",
		Options:      provider.Options{Model: "gemini-2.5-pro"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", (*requests)[0].path)
	assert.False(t, gjson.GetBytes((*requests)[0].body, "generationConfig.thinkingConfig").Exists())
}

func TestProvider_CallAPI_RateLimited(t *testing.T) {
	p, _ := setupTestServer(t, map[string]string{SecretKeyName: "AIza-1"}, http.StatusTooManyRequests, `{
		"error": {
			"code": 429,
			"message": "You exceeded your current quota",
			"status": "RESOURCE_EXHAUSTED",
			"details": [{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "17s"}]
		}
	}`)

	_, err := p.CallAPI(context.Background(), provider.CompletionParams{SystemPrompt: "s", UserPrompt: "u"})
	var rl *provider.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "17s", rl.RetryAfter)
	assert.Equal(t, "You exceeded your current quota", rl.Message)
}

func TestProvider_CallAPI_Blocked(t *testing.T) {
	p, _ := setupTestServer(t, map[string]string{SecretKeyName: "AIza-1"}, http.StatusOK,
		`{"promptFeedback":{"blockReason":"SAFETY"}}`)

	_, err := p.CallAPI(context.Background(), provider.CompletionParams{SystemPrompt: "s", UserPrompt: "u"})
	require.ErrorIs(t, err, provider.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestProvider_CallAPI_EmptyParts(t *testing.T) {
	p, _ := setupTestServer(t, map[string]string{SecretKeyName: "AIza-1"}, http.StatusOK,
		`{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`)

	_, err := p.CallAPI(context.Background(), provider.CompletionParams{SystemPrompt: "s", UserPrompt: "u"})
	require.ErrorIs(t, err, provider.ErrEmptyResponse)
	assert.Contains(t, err.Error(), "MAX_TOKENS")
}

func TestProvider_CallAPI_MissingCredential(t *testing.T) {
	p, requests := setupTestServer(t, nil, http.StatusOK, okReply)

	_, err := p.CallAPI(context.Background(), provider.CompletionParams{SystemPrompt: "s", UserPrompt: "u"})
	require.ErrorIs(t, err, provider.ErrMissingCredential)
	assert.Contains(t, err.Error(), "Gemini API key is not configured")
	assert.Empty(t, *requests)
}

func TestBuildRequest_AdditionalParams(t *testing.T) {
	body, err := buildRequest(&provider.CompletionParams{
		SystemPrompt: "s",
		UserPrompt:   "u",
		Options: provider.Options{
			AdditionalParams: map[string]any{
				"safetySettings": []map[string]string{{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "BLOCK_NONE", gjson.GetBytes(body, "safetySettings.0.threshold").String())
	assert.False(t, gjson.GetBytes(body, "generationConfig.responseJsonSchema").Exists())
}
