package store

// Store is a byte keyed store; Get of a missing key is nil, nil.
type Store interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close() error
}

type KVStore interface {
	Store

	// Iter visits keys under prefix in order, counting calls of fn that
	// returned nil.
	Iter(prefix []byte, fn func(k, v []byte) error) int64

	// NewTxnStore opens a transaction; update=false is read only.
	NewTxnStore(update bool) (TxnStore, error)
}

// TxnStore sees its own writes; nothing is visible to others before Commit.
type TxnStore interface {
	Store
	Commit() error
	Discard()
}
