// Package extract is the public entry point of nbcache: it pulls named
// objects out of another document's compiled cache, as of a given chunk,
// and reconstructs the minimal code a reader needs to see to reproduce
// them.
//
// One extraction call runs a linear pipeline: locate the document by
// prefix, parse its chunks, slice the dependency-relevant lines, load the
// object values from the cache into the caller's scope, and render the
// sliced code as a collapsible snippet.
package extract

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nbcache/internal/cache"
	"nbcache/internal/chunk"
	"nbcache/internal/compiler"
	"nbcache/internal/config"
	"nbcache/internal/document"
	"nbcache/internal/render"
	"nbcache/internal/slice"
)

// Scope receives the loaded objects. The caller owns it; nothing is ever
// written anywhere else.
type Scope = cache.Scope

// MapScope is the plain map-backed Scope.
type MapScope = cache.MapScope

// Request describes one extraction.
type Request struct {
	// Prefix identifies the source document.
	Prefix string

	// Chunk is the target chunk name; object values are taken as of the
	// end of this chunk.
	Chunk string

	// Objects are the names to load. Must be non-empty.
	Objects []string

	// Flexible enables the sibling-workflows and chaptered-book search
	// strategies.
	Flexible bool

	// Scope receives the loaded objects.
	Scope Scope
}

// Result is the outcome of one successful extraction. The requested
// objects are already bound into the request's scope.
type Result struct {
	// ID correlates this call's log lines.
	ID string

	// Document is the located source document.
	Document *document.Document

	// CachePath is the object database the values came from.
	CachePath string

	// Snippet is the reconstructed, displayable code.
	Snippet *render.Snippet
}

// StoreOpener opens the cache database produced by the compiler.
type StoreOpener func(path string, log *zap.Logger) (cache.Store, error)

// Resolver executes extraction requests. Safe for concurrent use. Parses
// are memoized per document path and invalidated when the file's mtime
// moves or a watcher reports a change.
type Resolver struct {
	cfg     *config.Config
	log     *zap.Logger
	locator *document.Locator
	parser  *chunk.Parser
	slicer  *slice.Slicer
	open    StoreOpener
	comp    compiler.Compiler

	mu      sync.Mutex
	memo    map[string]memoEntry
	watcher *document.Watcher
}

type memoEntry struct {
	modTime time.Time
	parsed  *chunk.Parsed
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	log  *zap.Logger
	comp compiler.Compiler
	open StoreOpener
}

// WithLogger sets the resolver's logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *resolverOptions) { o.log = log }
}

// WithCompiler overrides the compile fallback built from the config.
func WithCompiler(comp compiler.Compiler) Option {
	return func(o *resolverOptions) { o.comp = comp }
}

// WithStoreOpener overrides how cache databases are opened. Tests use this
// to substitute in-memory stores.
func WithStoreOpener(open StoreOpener) Option {
	return func(o *resolverOptions) { o.open = open }
}

// New builds a Resolver over the given configuration.
func New(cfg *config.Config, opts ...Option) (*Resolver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &resolverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.comp == nil && len(cfg.Compiler.Command) > 0 {
		timeout, err := cfg.CompileTimeout()
		if err != nil {
			return nil, err
		}
		o.comp = &compiler.ExecCompiler{
			Command: cfg.Compiler.Command,
			Dir:     cfg.SearchRoot,
			Timeout: timeout,
			Log:     o.log,
		}
	}
	if o.open == nil {
		o.open = func(path string, log *zap.Logger) (cache.Store, error) {
			return cache.OpenSQLite(path, log)
		}
	}

	locator, err := document.NewLocator(cfg, o.comp, o.log)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		cfg:     cfg,
		log:     o.log,
		locator: locator,
		parser:  chunk.NewParser(cfg.UnrefPrefix),
		slicer:  slice.NewSlicer(cfg.UnrefPrefix, o.log),
		open:    o.open,
		comp:    o.comp,
		memo:    make(map[string]memoEntry),
	}, nil
}

// Compile locates a document and compiles it regardless of any existing
// cache, returning the cache database path. Used by tooling that wants to
// refresh a cache; Extract itself only compiles when no cache exists.
func (r *Resolver) Compile(ctx context.Context, prefix string, flexible bool) (string, error) {
	doc, err := r.locator.Locate(prefix, flexible)
	if err != nil {
		return "", err
	}
	if r.comp == nil {
		return "", &document.CacheUnavailableError{Doc: doc.Path, CacheDir: r.locator.CacheDir(doc)}
	}
	if err := r.comp.Compile(ctx, doc.Path); err != nil {
		return "", fmt.Errorf("%w: %s: compile failed: %w", ErrCacheUnavailable, doc.Path, err)
	}
	return r.locator.EnsureCache(ctx, doc)
}

// Extract runs one extraction. On success the requested objects are bound
// into req.Scope and the rendered snippet is returned; on any failure the
// scope is untouched.
func (r *Resolver) Extract(ctx context.Context, req Request) (*Result, error) {
	if len(req.Objects) == 0 {
		return nil, ErrNoObjects
	}
	if req.Scope == nil {
		return nil, ErrNilScope
	}

	id := uuid.NewString()
	log := r.log.With(zap.String("extraction", id), zap.String("prefix", req.Prefix))

	doc, err := r.locator.Locate(req.Prefix, req.Flexible)
	if err != nil {
		return nil, err
	}
	log.Debug("located document", zap.String("path", doc.Path))

	cachePath, err := r.locator.EnsureCache(ctx, doc)
	if err != nil {
		return nil, err
	}

	parsed, err := r.parseDocument(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", doc.Path, err)
	}

	slices, err := r.slicer.Slice(parsed, req.Chunk, req.Objects)
	if err != nil {
		return nil, err
	}
	log.Debug("sliced dependencies",
		zap.String("chunk", req.Chunk),
		zap.Int("kept_chunks", len(slices)))

	store, err := r.open(cachePath, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := cache.Load(ctx, store, req.Chunk, req.Objects, req.Scope, log); err != nil {
		return nil, err
	}
	log.Info("extracted objects",
		zap.String("chunk", req.Chunk),
		zap.Strings("objects", req.Objects))

	return &Result{
		ID:        id,
		Document:  doc,
		CachePath: cachePath,
		Snippet:   render.New(slices),
	}, nil
}

// ExtractCached is the convenience form of Extract with flexible search
// enabled, mirroring the call shape documents use.
func (r *Resolver) ExtractCached(ctx context.Context, prefix, chunkName string, scope Scope, objects ...string) (*Result, error) {
	return r.Extract(ctx, Request{
		Prefix:   prefix,
		Chunk:    chunkName,
		Objects:  objects,
		Flexible: true,
		Scope:    scope,
	})
}

// parseDocument returns the memoized parse of a document, re-reading the
// file when its mtime has moved since the cached parse.
func (r *Resolver) parseDocument(path string) (*chunk.Parsed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	entry, ok := r.memo[path]
	r.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.parsed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := r.parser.Parse(string(data))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.memo[path] = memoEntry{modTime: info.ModTime(), parsed: parsed}
	r.mu.Unlock()
	return parsed, nil
}

// Invalidate drops the memoized parse for a document path.
func (r *Resolver) Invalidate(path string) {
	r.mu.Lock()
	delete(r.memo, path)
	r.mu.Unlock()
}

// StartWatching begins watching the search root and invalidates memoized
// parses as documents change. Optional; call StopWatching before discarding
// the resolver.
func (r *Resolver) StartWatching(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return nil
	}

	w, err := document.NewWatcher(r.cfg.SearchRoot, r.cfg.Extension, r.Invalidate, r.log)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	r.watcher = w
	return nil
}

// StopWatching stops the document watcher, if one is running.
func (r *Resolver) StopWatching() {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}
