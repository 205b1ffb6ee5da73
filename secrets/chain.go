package secrets

import (
	"context"
	"fmt"

	"github.com/casualjim/chartwise/provider"
)

type chain []provider.SecretStore

// Chain returns a store that asks each store in order and returns the first
// non-empty value. An error from any store stops the lookup.
func Chain(stores ...provider.SecretStore) provider.SecretStore {
	var c chain
	for _, s := range stores {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) Get(ctx context.Context, key string) (string, error) {
	for i, store := range c {
		v, err := store.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("secret store %d: %w", i, err)
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}
