// Package secrets provides provider.SecretStore implementations.
//
// Provider adapters ask for secrets by name (openaiApiKey, geminiApiKey2, ...).
// Env maps those names onto environment variables, reading a .env file as a
// fallback. Memory holds values set at runtime, for example by tests or a
// settings screen. Chain consults several stores in order and returns the
// first non-empty value.
//
//	store := secrets.Chain(overrides, secrets.Env(".env"))
//	registry := providers.NewRegistry()
//	err := registry.RegisterBuiltIns(store)
package secrets
