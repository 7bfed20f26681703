package storage

import "context"

// Storage archives generated artifacts (notices, tracking files) in an
// object store.
type Storage interface {
	// Upload stores data under key and returns a URL for it.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Download retrieves the object stored under key.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
