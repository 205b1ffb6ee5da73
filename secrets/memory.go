package secrets

import (
	"context"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/chartwise/provider"
)

var _ provider.SecretStore = (*MemoryStore)(nil)

// MemoryStore keeps secrets in process memory. It is safe for concurrent use.
type MemoryStore struct {
	values *haxmap.Map[string, string]
}

// Memory creates a store seeded with values. The map is copied.
func Memory(values map[string]string) *MemoryStore {
	m := &MemoryStore{values: haxmap.New[string, string]()}
	for k, v := range values {
		m.values.Set(k, v)
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, _ := m.values.Get(key)
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) {
	m.values.Set(key, value)
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) {
	m.values.Del(key)
}
