// Package tracestore persists evaluation results in a local BadgerDB, keyed
// by the evaluated position's FEN.
package tracestore

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// Store wraps BadgerDB for persistent storage of evaluation traces.
type Store struct {
	db *badger.DB
}

// Open opens the store in dir, creating it if needed.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// key derives the fixed-width storage key for a FEN string.
func key(fen string) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], xxhash.Sum64String(fen))
	return k[:]
}

// Put stores value under the position's key, JSON-encoded. An existing
// entry for the same position is overwritten.
func (s *Store) Put(fen string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(fen), data)
	})
}

// Get loads the entry for fen into value. It returns false with a nil error
// when the position has never been stored.
func (s *Store) Get(fen string, value any) (bool, error) {
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(fen))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, value)
		})
	})

	return found, err
}
