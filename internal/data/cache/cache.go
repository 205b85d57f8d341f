// # internal/data/cache/cache.go
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	coreerrors "zodlint/internal/core/errors"
)

const resultsBucket = "lint_results"

// ResultCache persists lint results between runs, keyed by a hash of the
// rule configuration, the path and the file content. Each value carries the
// time it was written so stale entries can be pruned.
type ResultCache struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the cache file at path. Another process holding the
// file makes Open fail after a short wait instead of blocking the run.
func Open(path string) (*ResultCache, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "failed to create cache directory")
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, (&coreerrors.DomainError{
				Code:    coreerrors.CodeConflict,
				Message: "result cache is locked by another process",
				Err:     err,
			}).WithContext(coreerrors.CtxPath, path)
		}
		return nil, (&coreerrors.DomainError{
			Code:    coreerrors.CodeInternal,
			Message: "failed to open result cache",
			Err:     err,
		}).WithContext(coreerrors.CtxPath, path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resultsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "failed to initialize result cache")
	}
	return &ResultCache{db: db, now: time.Now}, nil
}

func (c *ResultCache) Close() error {
	return c.db.Close()
}

func (c *ResultCache) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(resultsBucket)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		if len(raw) < 8 {
			return fmt.Errorf("corrupt cache entry %q", key)
		}
		// raw is only valid inside the transaction.
		out = append([]byte(nil), raw[8:]...)
		return nil
	})
	if err != nil {
		return nil, false, coreerrors.Wrap(err, coreerrors.CodeInternal, "result cache read failed")
	}
	return out, out != nil, nil
}

func (c *ResultCache) Put(key string, value []byte) error {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf, uint64(c.now().UnixNano()))
	copy(buf[8:], value)
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).Put([]byte(key), buf)
	})
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "result cache write failed")
	}
	return nil
}

// Prune deletes entries written before now-maxAge and returns how many went.
func (c *ResultCache) Prune(maxAge time.Duration) (int, error) {
	cutoff := uint64(c.now().Add(-maxAge).UnixNano())
	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucket))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) < 8 || binary.BigEndian.Uint64(v[:8]) < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, coreerrors.Wrap(err, coreerrors.CodeInternal, "result cache prune failed")
	}
	return removed, nil
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(resultsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear drops every entry.
func (c *ResultCache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(resultsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(resultsBucket))
		return err
	})
}
