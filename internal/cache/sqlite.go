package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore reads a cache persisted as a SQLite database with a single
// objects(chunk, name, value) table. This is the on-disk format the
// compiler writes inside the document's cache directory.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// OpenSQLite opens an existing cache database. The file must already exist;
// a missing file means the document was never compiled, which callers
// surface as a cache-availability failure rather than silently creating an
// empty cache here.
func OpenSQLite(path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cache database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		log.Debug("failed to set sqlite query_only", zap.Error(err))
	}

	log.Debug("opened cache database", zap.String("path", path))
	return &SQLiteStore{db: db, path: path, log: log}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, chunkName, objectName string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM objects WHERE chunk = ? AND name = ?",
		chunkName, objectName).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &ObjectNotFoundError{Chunk: chunkName, Object: objectName}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry (%s, %s): %w", chunkName, objectName, err)
	}
	return value, nil
}

// Chunks implements Store.
func (s *SQLiteStore) Chunks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT chunk FROM objects ORDER BY chunk")
	if err != nil {
		return nil, fmt.Errorf("failed to list cached chunks: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		chunks = append(chunks, name)
	}
	return chunks, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// CreateSQLite initializes an empty cache database with the objects schema.
// It exists for compiler implementations and tests; the resolver itself
// never creates caches.
func CreateSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS objects (
			chunk TEXT NOT NULL,
			name  TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (chunk, name)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create objects table: %w", err)
	}
	return db, nil
}

// PutSQLite writes one JSON-encoded entry through a handle opened with
// CreateSQLite.
func PutSQLite(ctx context.Context, db *sql.DB, chunkName, objectName string, value []byte) error {
	_, err := db.ExecContext(ctx,
		"INSERT OR REPLACE INTO objects (chunk, name, value) VALUES (?, ?, ?)",
		chunkName, objectName, value)
	if err != nil {
		return fmt.Errorf("failed to write cache entry (%s, %s): %w", chunkName, objectName, err)
	}
	return nil
}
