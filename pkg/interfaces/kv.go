package interfaces

import "context"

// KV is a string key-value backend for one storage scope
type KV interface {
	// Get returns the stored value. The boolean is false if the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the whole value of key
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
