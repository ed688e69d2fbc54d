package extract

import (
	"errors"

	"nbcache/internal/cache"
	"nbcache/internal/chunk"
	"nbcache/internal/document"
	"nbcache/internal/slice"
)

// Failure sentinels, re-exported so callers can match with errors.Is
// without reaching into internal packages. Each corresponds to one stage of
// the pipeline; every failure aborts the extraction with the destination
// scope untouched.
var (
	// ErrBadPrefix: the prefix is empty or carries path separators.
	ErrBadPrefix = document.ErrBadPrefix

	// ErrDocumentNotFound: no search strategy resolved the prefix.
	ErrDocumentNotFound = document.ErrDocumentNotFound

	// ErrCacheUnavailable: the document has no compiled cache and
	// compilation did not produce one.
	ErrCacheUnavailable = document.ErrCacheUnavailable

	// ErrDuplicateChunkName: two referenceable chunks share a name.
	ErrDuplicateChunkName = chunk.ErrDuplicateChunkName

	// ErrMalformedDocument: a fence was opened but never closed.
	ErrMalformedDocument = chunk.ErrMalformedDocument

	// ErrUnknownChunk: the target chunk is not referenceable in the
	// document.
	ErrUnknownChunk = slice.ErrUnknownChunk

	// ErrObjectNotFound: a requested object is absent from the cache at
	// the target chunk.
	ErrObjectNotFound = cache.ErrObjectNotFound

	// ErrNoObjects: the request named no objects.
	ErrNoObjects = errors.New("no objects requested")

	// ErrNilScope: the request carried no destination scope.
	ErrNilScope = errors.New("destination scope is nil")
)
