// Package providertest provides a scriptable provider.Provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/casualjim/chartwise/provider"
)

var _ provider.Provider = (*Stub)(nil)

// Stub is a provider whose answers are scripted by the test.
type Stub struct {
	Desc provider.Descriptor
	// Key is returned by Secret; an empty Key means no credential.
	Key string
	// Handler answers CallAPI. When nil the stub returns Reply or Err.
	Handler func(ctx context.Context, params provider.CompletionParams) (*provider.Response, error)
	Reply   string
	Err     error

	mu    sync.Mutex
	calls []provider.CompletionParams
}

// New creates a stub that always answers reply.
func New(id, reply string) *Stub {
	return &Stub{
		Desc: provider.Descriptor{
			ID:            id,
			DisplayName:   id,
			SecretKeyName: id + "ApiKey",
			DefaultModel:  id + "-model",
		},
		Key:   "test-key",
		Reply: reply,
	}
}

// Failing creates a stub whose calls fail with err.
func Failing(id string, err error) *Stub {
	s := New(id, "")
	s.Err = err
	return s
}

func (s *Stub) ID() string                      { return s.Desc.ID }
func (s *Stub) DisplayName() string             { return s.Desc.DisplayName }
func (s *Stub) SecretKeyName() string           { return s.Desc.SecretKeyName }
func (s *Stub) DefaultModel() string            { return s.Desc.DefaultModel }
func (s *Stub) Descriptor() provider.Descriptor { return s.Desc }

func (s *Stub) Secret(context.Context) (string, error) {
	if s.Key == "" {
		return "", provider.ErrMissingCredential
	}
	return s.Key, nil
}

func (s *Stub) HasSecret(ctx context.Context) bool {
	_, err := s.Secret(ctx)
	return err == nil
}

func (s *Stub) CallAPI(ctx context.Context, params provider.CompletionParams) (*provider.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, params)
	s.mu.Unlock()

	if s.Handler != nil {
		return s.Handler(ctx, params)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	resp := provider.NewResponse(s.Reply)
	resp.Provider = s.Desc.ID
	resp.Model = s.Desc.DefaultModel
	if params.Options.Model != "" {
		resp.Model = params.Options.Model
	}
	return resp, nil
}

// Calls returns the parameters of every CallAPI invocation so far.
func (s *Stub) Calls() []provider.CompletionParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]provider.CompletionParams(nil), s.calls...)
}
