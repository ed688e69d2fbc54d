// Package document resolves a document prefix to a source file on disk and
// guarantees a compiled cache exists for it, compiling at most once as a
// fallback.
package document

import (
	"errors"
	"fmt"
	"strings"
)

// Locator errors.
var (
	// ErrBadPrefix is returned for empty prefixes or prefixes carrying
	// path separators: a prefix names a document, it is not a path.
	ErrBadPrefix = errors.New("invalid document prefix")

	// ErrDocumentNotFound is returned when no search strategy resolves
	// the prefix to an existing file.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrCacheUnavailable is returned when a located document has no
	// compiled cache and compilation did not produce one.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Document is a located source file. Read-only once returned.
type Document struct {
	// Prefix is the identifier the document was located by.
	Prefix string

	// Path is the resolved source file.
	Path string
}

// NotFoundError lists the strategies attempted for a prefix.
type NotFoundError struct {
	Prefix string
	Tried  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no document found for prefix %q (tried: %s)",
		e.Prefix, strings.Join(e.Tried, "; "))
}

func (e *NotFoundError) Unwrap() error { return ErrDocumentNotFound }

// CacheUnavailableError reports a document whose cache could not be
// produced.
type CacheUnavailableError struct {
	Doc      string
	CacheDir string
	Compiled bool // whether a compile was attempted
}

func (e *CacheUnavailableError) Error() string {
	if e.Compiled {
		return fmt.Sprintf("no cache for %s at %s after compiling", e.Doc, e.CacheDir)
	}
	return fmt.Sprintf("no cache for %s at %s and no compiler configured", e.Doc, e.CacheDir)
}

func (e *CacheUnavailableError) Unwrap() error { return ErrCacheUnavailable }
