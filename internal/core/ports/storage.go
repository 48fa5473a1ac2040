package ports

import "context"

// ScopeStorage is the persistent key-value medium behind the session store.
// Every browser owns one scope; keys are only meaningful inside it.
type ScopeStorage interface {
	// Read returns the values present for keys. Missing keys are absent from
	// the map, not an error.
	Read(ctx context.Context, scope string, keys ...string) (map[string]string, error)
	// Write sets every entry in one atomic operation.
	Write(ctx context.Context, scope string, entries map[string]string) error
	// Delete removes keys in one atomic operation. Deleting absent keys is not an error.
	Delete(ctx context.Context, scope string, keys ...string) error
}

// HealthChecker is a dependency probed by the readiness endpoint.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
