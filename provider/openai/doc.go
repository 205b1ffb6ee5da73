/*
Package openai implements the provider.Provider interface for OpenAI's chat
completions API on top of the official openai-go SDK.

The output schema is sent natively as a json_schema response format in strict
mode, so the system prompt reaches the model unchanged.

# Usage

	p, err := openai.New(store,
		provider.WithDefaultModel("gpt-4.1"),
		provider.WithRateLimit(2, 1),
	)
	if err != nil {
		return err
	}
	resp, err := p.CallAPI(ctx, provider.CompletionParams{
		SystemPrompt: category.SystemPrompt,
		UserPrompt:   patientXML,
		Schema:       category.OutputSchema,
	})

# Request mapping

  - Options.Temperature defaults to 0.1
  - Options.MaxOutputTokens maps to max_completion_tokens
  - Options.ReasoningEffort maps to reasoning_effort
  - Options.AdditionalParams are set on the request body last

The SDK's own retries are disabled: an HTTP 429 surfaces immediately as a
*provider.RateLimitError carrying the Retry-After and X-RateLimit-Reset-*
hints.
*/
package openai
