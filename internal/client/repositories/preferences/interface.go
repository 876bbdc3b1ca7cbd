package preferences

import "context"

// Repository stores string values under (namespace, key).
type Repository interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	// Set upserts a single value.
	Set(ctx context.Context, namespace, key, value string) error
	// Delete removes one key; deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error
	// List returns all keys stored under namespace.
	List(ctx context.Context, namespace string) (map[string]string, error)
	// DeleteNamespace removes every key stored under namespace and reports
	// how many rows went away.
	DeleteNamespace(ctx context.Context, namespace string) (int64, error)
}
