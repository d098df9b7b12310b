package embed

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// DefaultCacheTTL is the lifetime of cached vectors.
const DefaultCacheTTL = 7 * 24 * time.Hour

const cacheKeyPrefix = "graphplan/emb/v1/"

// Cache persists intent vectors between restarts, keyed by a corpus hash that
// changes whenever the intents or the embedding model change.
type Cache interface {
	// Load returns the vectors stored under key. A miss is (nil, nil).
	Load(ctx context.Context, key string) (map[string][]float32, error)

	// Save stores vectors under key.
	Save(ctx context.Context, key string, vectors map[string][]float32) error
}

// BadgerCache is a Cache backed by BadgerDB. Expiry is left to Badger's TTL.
type BadgerCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *zap.Logger
	owned  bool
}

// OpenBadgerCache opens (or creates) a cache in dir. An empty dir opens an
// in-memory store.
func OpenBadgerCache(dir string, ttl time.Duration, logger *zap.Logger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vector cache %s: %w", dir, err)
	}

	c := NewBadgerCache(db, ttl, logger)
	c.owned = true

	return c, nil
}

// NewBadgerCache wraps an open database. The caller keeps ownership of db.
func NewBadgerCache(db *badger.DB, ttl time.Duration, logger *zap.Logger) *BadgerCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &BadgerCache{db: db, ttl: ttl, logger: logger}
}

// Close closes the database if the cache opened it.
func (c *BadgerCache) Close() error {
	if !c.owned {
		return nil
	}

	return c.db.Close()
}

// Load implements Cache.
func (c *BadgerCache) Load(ctx context.Context, key string) (map[string][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if err != nil {
			return err
		}

		raw, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.logger.Debug("Vector cache miss", zap.String("key", shortKey(key)))

		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("vector cache load: %w", err)
	}

	var vectors map[string][]float32

	err = gob.NewDecoder(bytes.NewReader(raw)).Decode(&vectors)
	if err != nil {
		return nil, fmt.Errorf("vector cache decode: %w", err)
	}

	c.logger.Debug("Vector cache hit", zap.String("key", shortKey(key)), zap.Int("vectors", len(vectors)))

	return vectors, nil
}

// Save implements Cache.
func (c *BadgerCache) Save(ctx context.Context, key string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(vectors)
	if err != nil {
		return fmt.Errorf("vector cache encode: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(cacheKeyPrefix+key), buf.Bytes()).WithTTL(c.ttl))
	})
	if err != nil {
		return fmt.Errorf("vector cache save: %w", err)
	}

	c.logger.Debug("Vector cache saved",
		zap.String("key", shortKey(key)),
		zap.Int("vectors", len(vectors)),
		zap.Duration("ttl", c.ttl))

	return nil
}

func shortKey(k string) string {
	if len(k) > 12 {
		return k[:12]
	}

	return k
}
