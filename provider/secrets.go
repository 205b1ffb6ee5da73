package provider

import (
	"context"
	"strings"
	"sync/atomic"
)

// SecretStore is the key-value store providers read API keys from.
// Get returns "" and a nil error when the key is absent.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// SecretStoreFunc adapts a function to SecretStore.
type SecretStoreFunc func(ctx context.Context, key string) (string, error)

func (f SecretStoreFunc) Get(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// KeyRotator alternates between two API keys on every call so load is spread
// across two rate-limit buckets. When only one of the keys is configured it is
// used every time.
type KeyRotator struct {
	keys    [2]string
	counter atomic.Uint64
}

// NewKeyRotator creates a rotator over the primary and secondary secret names.
func NewKeyRotator(primary, secondary string) *KeyRotator {
	return &KeyRotator{keys: [2]string{primary, secondary}}
}

// Next returns the next API key and its 1-based slot.
func (k *KeyRotator) Next(ctx context.Context, store SecretStore) (string, int, error) {
	start := int((k.counter.Add(1) - 1) % 2)
	for i := range 2 {
		slot := (start + i) % 2
		name := k.keys[slot]
		if name == "" {
			continue
		}
		value, err := store.Get(ctx, name)
		if err != nil {
			return "", 0, err
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, slot + 1, nil
		}
	}
	return "", 0, nil
}
