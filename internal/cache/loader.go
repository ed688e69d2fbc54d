package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Scope receives loaded objects. The caller owns the scope; loading never
// reaches into any ambient environment.
type Scope interface {
	Bind(name string, value any)
}

// MapScope is the plain map-backed Scope.
type MapScope map[string]any

// Bind implements Scope.
func (m MapScope) Bind(name string, value any) { m[name] = value }

// Load retrieves every requested object as stored at the target chunk and
// binds the decoded values into scope. Loading is all-or-nothing: if any
// object is missing or undecodable, the scope is left untouched and the
// first failure is returned.
func Load(ctx context.Context, store Store, chunkName string, objects []string, scope Scope, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	// Fetch and decode everything before binding anything.
	values := make(map[string]any, len(objects))
	for _, name := range objects {
		raw, err := store.Get(ctx, chunkName, name)
		if err != nil {
			return err
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("failed to decode cached object %q at chunk %q: %w", name, chunkName, err)
		}
		values[name] = value
	}

	for _, name := range objects {
		scope.Bind(name, values[name])
	}
	log.Debug("loaded objects from cache",
		zap.String("chunk", chunkName),
		zap.Int("objects", len(objects)))
	return nil
}
