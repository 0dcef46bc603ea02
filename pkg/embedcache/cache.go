// Package embedcache provides a content-addressed cache for embedding
// results, keyed by the SHA-256 digest of the edge text plus the
// EmbeddingConfig that produced it. A cache hit lets the CLI skip
// re-running the angular optimizer on unchanged input.
package embedcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danieldanhe/hyperbolic-networks/pkg/debug"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hconfig"
	"github.com/danieldanhe/hyperbolic-networks/pkg/hyperbolic"
	"github.com/danieldanhe/hyperbolic-networks/pkg/netstats"
)

// ErrNotFound is returned by Get when no cache entry matches the key.
var ErrNotFound = errors.New("embedcache: entry not found")

// Entry is the cached embedding payload: the node list and the derived
// stats, stripped of the *hgraph.Graph (the CLI rebuilds it cheaply from the
// same edge text on a cache hit, so it is not worth serializing).
type Entry struct {
	Nodes []hyperbolic.EmbeddedNode `json:"nodes"`
	Stats netstats.Stats            `json:"stats"`
}

// Cache wraps a sqlite-backed key/value store of embedding entries.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path and ensures
// the cache table exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("embedcache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("embedcache: migrate %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key computes the content-addressed cache key for a given edge text and
// embedding configuration: SHA-256 over the edge text followed by the
// JSON-marshaled config, hex-encoded.
func Key(edgeText string, cfg hconfig.EmbeddingConfig) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("embedcache: marshal config: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(edgeText))
	h.Write(cfgJSON)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get fetches the cached entry for key, or ErrNotFound if absent.
func (c *Cache) Get(key string) (Entry, error) {
	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM embeddings WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("embedcache: get %s: %w", key, err)
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, fmt.Errorf("embedcache: decode %s: %w", key, err)
	}
	debug.Log("embedcache: hit for key %s", key)
	return entry, nil
}

// Put stores entry under key, overwriting any existing value.
func (c *Cache) Put(key string, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("embedcache: encode %s: %w", key, err)
	}
	_, err = c.db.Exec(
		`INSERT INTO embeddings (key, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("embedcache: put %s: %w", key, err)
	}
	debug.Log("embedcache: stored key %s (%d nodes)", key, len(entry.Nodes))
	return nil
}

// FromResult builds a cache Entry from a hyperbolic.Result.
func FromResult(r *hyperbolic.Result) Entry {
	return Entry{Nodes: r.Nodes, Stats: r.Stats}
}
