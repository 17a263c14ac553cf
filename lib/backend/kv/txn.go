package kv

import (
	"sync"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/memoio/go-betawallet/lib/types/store"
)

var _ store.TxnStore = (*txn)(nil)

type txn struct {
	ds *BadgerStore
	tx *badger.Txn

	once sync.Once
}

// NewTxnStore starts a badger transaction; callers must Commit or Discard it.
func (d *BadgerStore) NewTxnStore(update bool) (store.TxnStore, error) {
	var t *txn
	err := d.use(func(db *badger.DB) error {
		t = &txn{ds: d, tx: db.NewTransaction(update)}
		return nil
	})
	return t, err
}

func (t *txn) Put(key, value []byte) error {
	return t.tx.Set(key, value)
}

func (t *txn) Get(key []byte) ([]byte, error) {
	return txnGet(t.tx, key)
}

func (t *txn) Has(key []byte) (bool, error) {
	return txnHas(t.tx, key)
}

func (t *txn) Delete(key []byte) error {
	return t.tx.Delete(key)
}

func (t *txn) Commit() error {
	return t.ds.use(func(*badger.DB) error {
		return t.tx.Commit()
	})
}

func (t *txn) Discard() {
	t.once.Do(t.tx.Discard)
}

// Close discards uncommitted writes.
func (t *txn) Close() error {
	t.Discard()
	return nil
}
