// Package store keeps server-side view state between requests.
package store

import "errors"

// ErrNotFound is returned by Get for unknown or evicted keys.
var ErrNotFound = errors.New("store: key not found")

// Store maps opaque tokens to saved view state. Implementations are safe for
// concurrent use.
type Store interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Close() error
}
