package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"nbcache/internal/compiler"
	"nbcache/internal/config"
)

// Locator resolves prefixes to document files using an ordered strategy
// list, and ensures compiled caches exist. Safe for concurrent use; a
// singleflight group collapses concurrent compile requests for one
// document into a single run.
type Locator struct {
	cfg       *config.Config
	comp      compiler.Compiler
	log       *zap.Logger
	chapterRe *regexp.Regexp

	compiles singleflight.Group
}

// NewLocator builds a locator over the configured search root. comp may be
// nil when no compile fallback is wanted; a missing cache then fails
// immediately.
func NewLocator(cfg *config.Config, comp compiler.Compiler, log *zap.Logger) (*Locator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	re, err := regexp.Compile(cfg.ChapterPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid chapter pattern: %w", err)
	}
	return &Locator{cfg: cfg, comp: comp, log: log, chapterRe: re}, nil
}

// strategy is one resolution attempt: a description for error reporting
// and a function returning the resolved path when it applies.
type strategy struct {
	desc    string
	resolve func() (string, bool)
}

// Locate resolves prefix to an existing document file. Strategies are tried
// in order and the first hit wins:
//
//  1. <root>/<prefix><ext>
//  2. <root>/<workflows>/<prefix><ext>              (flexible only)
//  3. <root>/<chapter-ordering><prefix><ext>        (flexible only)
//
// Results are deterministic for an unchanged filesystem: the chaptered scan
// considers directory entries in sorted order.
func (l *Locator) Locate(prefix string, flexible bool) (*Document, error) {
	if err := validPrefix(prefix); err != nil {
		return nil, err
	}

	strategies := []strategy{
		{
			desc: filepath.Join(l.cfg.SearchRoot, prefix+l.cfg.Extension),
			resolve: func() (string, bool) {
				return existingFile(filepath.Join(l.cfg.SearchRoot, prefix+l.cfg.Extension))
			},
		},
	}
	if flexible {
		strategies = append(strategies,
			strategy{
				desc: filepath.Join(l.cfg.SearchRoot, l.cfg.WorkflowsDir, prefix+l.cfg.Extension),
				resolve: func() (string, bool) {
					return existingFile(filepath.Join(l.cfg.SearchRoot, l.cfg.WorkflowsDir, prefix+l.cfg.Extension))
				},
			},
			strategy{
				desc: filepath.Join(l.cfg.SearchRoot, "*"+prefix+l.cfg.Extension) + " (chaptered)",
				resolve: func() (string, bool) {
					return l.chapteredFile(prefix)
				},
			},
		)
	}

	tried := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if path, ok := s.resolve(); ok {
			l.log.Debug("located document",
				zap.String("prefix", prefix),
				zap.String("path", path))
			return &Document{Prefix: prefix, Path: path}, nil
		}
		tried = append(tried, s.desc)
	}
	return nil, &NotFoundError{Prefix: prefix, Tried: tried}
}

// chapteredFile scans the search root (non-recursively) for a file named
// <ordering><prefix><ext> whose ordering part matches the chaptered book
// convention. The sorted first match wins.
func (l *Locator) chapteredFile(prefix string) (string, bool) {
	entries, err := os.ReadDir(l.cfg.SearchRoot)
	if err != nil {
		return "", false
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tail := prefix + l.cfg.Extension
	for _, name := range names {
		if !strings.HasSuffix(name, tail) || name == tail {
			continue
		}
		lead := name[:len(name)-len(tail)]
		if l.chapterRe.FindString(lead) != lead {
			continue
		}
		return filepath.Join(l.cfg.SearchRoot, name), true
	}
	return "", false
}

// CacheDir returns the document's cache directory: the source path with its
// extension replaced by the configured suffix.
func (l *Locator) CacheDir(doc *Document) string {
	return strings.TrimSuffix(doc.Path, l.cfg.Extension) + l.cfg.CacheSuffix
}

// CachePath returns the object database inside the cache directory.
func (l *Locator) CachePath(doc *Document) string {
	return filepath.Join(l.CacheDir(doc), l.cfg.CacheFile)
}

// EnsureCache verifies the document's compiled cache exists, invoking the
// compiler once when it does not, and returns the object database path.
// The cache counts as present when the cache directory is non-empty and
// the object database file exists.
func (l *Locator) EnsureCache(ctx context.Context, doc *Document) (string, error) {
	if l.cacheReady(doc) {
		return l.CachePath(doc), nil
	}

	if l.comp == nil {
		return "", &CacheUnavailableError{Doc: doc.Path, CacheDir: l.CacheDir(doc)}
	}

	l.log.Info("cache missing, compiling",
		zap.String("doc", doc.Path),
		zap.String("cache", l.CacheDir(doc)))

	_, err, _ := l.compiles.Do(doc.Path, func() (any, error) {
		return nil, l.comp.Compile(ctx, doc.Path)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: compile failed: %w", ErrCacheUnavailable, doc.Path, err)
	}

	if !l.cacheReady(doc) {
		return "", &CacheUnavailableError{Doc: doc.Path, CacheDir: l.CacheDir(doc), Compiled: true}
	}
	return l.CachePath(doc), nil
}

// cacheReady reports whether the cache directory is non-empty and the
// object database exists.
func (l *Locator) cacheReady(doc *Document) bool {
	dir := l.CacheDir(doc)
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return false
	}
	if _, err := os.Stat(l.CachePath(doc)); err != nil {
		return false
	}
	return true
}

func validPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty", ErrBadPrefix)
	}
	if strings.ContainsAny(prefix, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrBadPrefix, prefix)
	}
	return nil
}

// existingFile reports path when it names a regular file.
func existingFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}
