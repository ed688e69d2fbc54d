// Package cache reads compiled object values out of a document's cache.
// One entry exists per (chunk, object) pair, written at compile time; this
// package only ever reads them back. Values are stored as JSON.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrObjectNotFound is returned when a (chunk, object) entry is absent.
var ErrObjectNotFound = errors.New("object not found in cache")

// ObjectNotFoundError identifies the missing entry.
type ObjectNotFoundError struct {
	Chunk  string
	Object string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object %q not found in cache at chunk %q", e.Object, e.Chunk)
}

func (e *ObjectNotFoundError) Unwrap() error { return ErrObjectNotFound }

// Store is read access to one compiled cache. Implementations are written
// by the external compiler; this subsystem never mutates a cache through
// this interface.
type Store interface {
	// Get returns the JSON-encoded value of an object as stored at the
	// given chunk. Absent entries return an error matching
	// ErrObjectNotFound.
	Get(ctx context.Context, chunkName, objectName string) ([]byte, error)

	// Chunks lists the chunk names with at least one cached object, in
	// no particular order. Used by diagnostics, not by extraction.
	Chunks(ctx context.Context) ([]string, error)

	Close() error
}
