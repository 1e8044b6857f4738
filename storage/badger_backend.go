package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v2"
)

// TestBadgerDB opens a throwaway in-memory badger instance.
func TestBadgerDB() *badger.DB {
	option := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(option)
	if err != nil {
		panic(err)
	}
	return db
}

// OpenBadgerDB opens a persistent badger instance rooted at path.
func OpenBadgerDB(path string) (*badger.DB, error) {
	option := badger.DefaultOptions(path).WithLogger(nil)
	return badger.Open(option)
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func (backend *BadgerBackend) txnGet(key []byte) ([]byte, error) {
	var buf []byte
	err := backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return buf, err
}

func (backend *BadgerBackend) txnPut(key, buf []byte) error {
	err := backend.db.Update(func(txn *badger.Txn) error {
		err := txn.Set(key, buf)
		return err
	})
	return err
}

func (backend *BadgerBackend) txnDelete(key []byte) error {
	err := backend.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		return err
	})
	return err
}

func (backend *BadgerBackend) txnKeys(prefix byte) ([]string, error) {
	var names []string
	err := backend.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{prefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, NameFromKey(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return names, err
}

func (backend *BadgerBackend) GetPart(key string) ([]byte, error) {
	return backend.txnGet(PartKey(key))
}

func (backend *BadgerBackend) PutPart(key string, buf []byte) error {
	return backend.txnPut(PartKey(key), buf)
}

func (backend *BadgerBackend) DeletePart(key string) error {
	return backend.txnDelete(PartKey(key))
}

func (backend *BadgerBackend) PartKeys() ([]string, error) {
	return backend.txnKeys(partPrefix)
}

func (backend *BadgerBackend) GetAttr(name string) ([]byte, error) {
	return backend.txnGet(AttrKey(name))
}

func (backend *BadgerBackend) PutAttr(name string, buf []byte) error {
	return backend.txnPut(AttrKey(name), buf)
}

func (backend *BadgerBackend) DeleteAttr(name string) error {
	return backend.txnDelete(AttrKey(name))
}

func (backend *BadgerBackend) AttrNames() ([]string, error) {
	return backend.txnKeys(attrPrefix)
}
