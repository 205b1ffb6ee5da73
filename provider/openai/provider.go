package openai

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/casualjim/chartwise/pkg/jsonx"
	"github.com/casualjim/chartwise/provider"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ID             = "openai"
	SecretKeyName  = "openaiApiKey"
	DefaultModel   = "gpt-4.1-mini"
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultTemperature = 0.1
)

// Descriptor is the registration metadata of the OpenAI provider.
func Descriptor() provider.Descriptor {
	return provider.Descriptor{
		ID:            ID,
		DisplayName:   "OpenAI",
		SecretKeyName: SecretKeyName,
		DefaultModel:  DefaultModel,
		Description:   "OpenAI chat completions with native JSON schema structured output",
	}
}

var _ provider.Provider = (*Provider)(nil)

// Provider calls the OpenAI chat completions API through the official SDK.
type Provider struct {
	*provider.Base
	client *openai.Client
}

// New creates the OpenAI provider. The API key is read from secrets on every
// call, so rotating the stored key takes effect without a restart.
func New(secrets provider.SecretStore, options ...opts.Option[provider.Config]) (*Provider, error) {
	cfg, err := provider.NewConfig(DefaultBaseURL, options...)
	if err != nil {
		return nil, err
	}
	base, err := provider.NewBase(Descriptor(), secrets, cfg)
	if err != nil {
		return nil, err
	}

	client := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL()+"/"),
		option.WithHTTPClient(stdClient(cfg.HTTPClient())),
		option.WithMaxRetries(0),
	)
	return &Provider{
		Base:   base,
		client: client,
	}, nil
}

// CallAPI sends one chat completion with the schema as a json_schema
// response format. Strict mode is requested only for schemas that allow it.
func (p *Provider) CallAPI(ctx context.Context, params provider.CompletionParams) (*provider.Response, error) {
	key, err := p.Secret(ctx)
	if err != nil {
		return nil, err
	}

	model := p.Model(params.Options)
	chatParams, reqOpts, err := p.buildRequest(model, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	reqOpts = append(reqOpts, option.WithAPIKey(key))

	p.Preflight(ctx, model, params.SystemPrompt, params.UserPrompt)
	if err := p.Config().Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request not sent: %w", p.DisplayName(), err)
	}

	start := time.Now()
	chat, err := p.client.Chat.Completions.New(ctx, chatParams, reqOpts...)
	if err != nil {
		return nil, p.mapError(err)
	}

	resp := provider.NewResponse("")
	if len(chat.Choices) > 0 {
		resp.Choices[0].Message.Content = chat.Choices[0].Message.Content
	}
	resp.Model = chat.Model
	resp.Usage = provider.Usage{
		PromptTokens:     chat.Usage.PromptTokens,
		CompletionTokens: chat.Usage.CompletionTokens,
		TotalTokens:      chat.Usage.TotalTokens,
	}
	return p.Finish(ctx, start, model, resp)
}

func (p *Provider) buildRequest(model string, params *provider.CompletionParams) (openai.ChatCompletionNewParams, []option.RequestOption, error) {
	oaiParams := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(params.SystemPrompt),
			openai.UserMessage(params.UserPrompt),
		}),
		Model:       openai.F(model),
		N:           openai.Int(1),
		Temperature: openai.Float(defaultTemperature),
	}

	options := params.Options
	if options.Temperature != nil {
		oaiParams.Temperature = openai.Float(*options.Temperature)
	}
	if options.TopP != nil {
		oaiParams.TopP = openai.Float(*options.TopP)
	}
	if options.MaxOutputTokens > 0 {
		oaiParams.MaxCompletionTokens = openai.Int(int64(options.MaxOutputTokens))
	}
	if options.Seed != nil {
		oaiParams.Seed = openai.Int(*options.Seed)
	}

	if params.Schema != nil {
		schema, err := params.Schema.SchemaMap()
		if err != nil {
			return openai.ChatCompletionNewParams{}, nil, fmt.Errorf("failed to convert schema %q: %w", params.Schema.Name, err)
		}
		schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   openai.String(params.Schema.Name),
			Schema: openai.F[interface{}](schema),
			Strict: openai.Bool(params.Schema.StrictCompatible()),
		}
		if params.Schema.Description != "" {
			schemaParam.Description = openai.String(params.Schema.Description)
		}
		oaiParams.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONSchemaParam{
				Type:       openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(schemaParam),
			},
		)
	}

	var reqOpts []option.RequestOption
	if options.ReasoningEffort.Valid() {
		reqOpts = append(reqOpts, option.WithJSONSet("reasoning_effort", string(options.ReasoningEffort)))
	}
	// additional params go last so they win over the typed fields
	for _, k := range slices.Sorted(maps.Keys(options.AdditionalParams)) {
		reqOpts = append(reqOpts, option.WithJSONSet(jsonx.EscapeKey(k), options.AdditionalParams[k]))
	}
	return oaiParams, reqOpts, nil
}

func (p *Provider) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		return provider.VendorError(p.DisplayName(), apiErr.StatusCode, header, apiErr.Message)
	}
	return fmt.Errorf("%s request failed: %w", p.DisplayName(), err)
}

func stdClient(c provider.HTTPClient) *http.Client {
	if hc, ok := c.(*http.Client); ok {
		return hc
	}
	return &http.Client{Transport: roundTripperFunc(c.Do)}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
