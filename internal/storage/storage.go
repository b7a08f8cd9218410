// Package storage provides the durable key-value store backing persisted
// client state. Each consumer owns one key (its namespace) and stores a
// small JSON blob under it.
package storage

// Store is a key-value store for small persisted blobs.
type Store interface {
	// Get returns the raw value for key, reporting whether it exists.
	Get(key string) ([]byte, bool, error)
	// Set writes the value for key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
