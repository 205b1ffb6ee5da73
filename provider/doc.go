// Package provider implements an abstraction layer for calling third-party LLM
// vendors (OpenAI, Gemini, Groq, Cerebras) in a uniform way. It defines the
// Provider contract and the plumbing every vendor adapter shares, so callers
// only ever deal with a CompletionParams in and a *Response out.
//
// Design decisions:
//   - One response shape: every adapter normalizes into Response, including usage
//   - Credentials are read from a SecretStore on every call, never cached
//   - Dual-key vendors alternate keys through a KeyRotator and report the slot
//   - Vendors without native schema support share the EmbedSchemaInPrompt strategy
//   - Failures are typed: ErrMissingCredential, ErrEmptyResponse, *RateLimitError, *HTTPError
//   - context.Context is honored at the HTTP boundary
//
// Key concepts:
//   - Provider: interface implemented by the vendor packages
//   - Base: descriptor, credential, transport and diagnostics helpers for adapters
//   - Config: transport options (base URL, HTTP client, default model, rate limit)
//   - StructuredOutput: named JSON schema the model must answer with
//
// Example usage:
//
//	p, err := groq.New(store, provider.WithRateLimit(5, 1))
//	if err != nil {
//	    return err
//	}
//
//	resp, err := p.CallAPI(ctx, provider.CompletionParams{
//	    SystemPrompt: cfg.SystemPrompt,
//	    UserPrompt:   patientXML,
//	    Schema:       cfg.OutputSchema,
//	})
//	switch {
//	case provider.IsRateLimited(err):
//	    // back off using the reset hints
//	case err != nil:
//	    return err
//	}
//	fmt.Println(resp.Content())
package provider
