package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend persists values in an embedded Badger database. This is the
// default persistent backend: no external process, one directory on disk.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("prefs: open badger at %q: %w", path, err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("prefs: badger get %q: %w", key, err)
	}
	return value, true, nil
}

func (b *BadgerBackend) Put(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("prefs: badger put %q: %w", key, err)
	}
	return nil
}

func (b *BadgerBackend) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("prefs: badger delete %q: %w", key, err)
	}
	return nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// Compile-time interface check.
var _ Backend = (*BadgerBackend)(nil)
