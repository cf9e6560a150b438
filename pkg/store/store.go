// Package store wraps an ethdb key-value database with a key prefix per
// logical table. The registry and the per-message settlement markers are the
// only durable state the protocol owns; both live here.
package store

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/pkg/errors"
)

// Open returns a database at path, or an in-memory one when path is empty.
func Open(path string) (ethdb.Database, error) {
	if path == "" {
		return rawdb.NewMemoryDatabase(), nil
	}
	db, err := rawdb.NewLevelDBDatabase(path, 16, 16, "nftvault", false)
	if err != nil {
		return nil, errors.Wrap(err, "open leveldb at "+path)
	}
	return db, nil
}

// Store is a prefixed view over a shared key-value database.
type Store struct {
	db     ethdb.KeyValueStore
	prefix []byte
}

func New(db ethdb.KeyValueStore, prefix string) *Store {
	return &Store{db: db, prefix: []byte(prefix)}
}

func (s *Store) key(k []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

func (s *Store) Put(k, v []byte) error {
	return s.db.Put(s.key(k), v)
}

func (s *Store) Has(k []byte) (bool, error) {
	return s.db.Has(s.key(k))
}

// Get returns the stored value, or ok=false when the key is absent.
func (s *Store) Get(k []byte) ([]byte, bool, error) {
	ok, err := s.db.Has(s.key(k))
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := s.db.Get(s.key(k))
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Each walks every entry under the prefix. The callback receives the key
// with the prefix stripped; returning false stops the walk.
func (s *Store) Each(fn func(k, v []byte) bool) error {
	it := s.db.NewIterator(s.prefix, nil)
	defer it.Release()
	for it.Next() {
		if !fn(it.Key()[len(s.prefix):], it.Value()) {
			break
		}
	}
	return it.Error()
}
