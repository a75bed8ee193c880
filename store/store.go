// Package store persists documents in SQLite.
//
// A saved document is two columns: the node tree as JSON, with every layer
// replaced by an Unloaded placeholder, and one blob holding the pixel data
// those placeholders point at. Loading a document returns the placeholder
// tree together with a source.Source reading that blob, so pixel data is
// fetched only for the layers an editor actually loads.
//
// Each document also has an append-only patch log. Save writes a new
// snapshot and clears the log; replaying Patches over Load reproduces the
// latest state.
//
// Usage:
//
//	st, err := store.Open("art.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	doc, src, err := st.Load(ctx, id)
//	ed, err := pxdoc.New(doc, pxdoc.WithSource(src))
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
)

// ErrDocumentNotFound is returned for unknown document ids. It wraps
// node.ErrNotFound.
var ErrDocumentNotFound = fmt.Errorf("store: document %w", node.ErrNotFound)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	tree       BLOB NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS patches (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	codec       TEXT NOT NULL,
	body        BLOB NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (document_id, seq)
);`

// DefaultCacheBytes is the default size of the range cache in front of
// each loaded document's blob.
const DefaultCacheBytes = 16 << 20

// Store is a document database. It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	codecName  string
	codec      patch.Codec
	cacheBytes int
}

type config struct {
	busyTimeout int
	synchronous string
	codec       string
	cacheBytes  int
	mkdirAll    bool
}

func defaults() config {
	return config{
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		codec:       "json",
		cacheBytes:  DefaultCacheBytes,
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithCodec selects the patch codec used for new log entries.
// Default: "json". Entries remember their codec, so logs may mix codecs.
func WithCodec(name string) Option { return func(c *config) { c.codec = name } }

// WithCacheBytes sets the range cache size for loaded documents.
// Zero disables the cache.
func WithCacheBytes(n int) Option { return func(c *config) { c.cacheBytes = n } }

// WithMkdirAll creates parent directories of the database path.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}
	codec, err := patch.LookupCodec(cfg.codec)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	// connection pragmas go in the DSN so every pooled connection gets them
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=synchronous(%s)",
		path, cfg.busyTimeout, cfg.synchronous)
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// each connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	Logger().Info("store: opened", "path", path, "codec", cfg.codec)
	return &Store{db: db, codecName: cfg.codec, codec: codec, cacheBytes: cfg.cacheBytes}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
