package kv

import (
	"errors"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"

	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/types/store"
)

var log = logging.Logger("badger")

var ErrClosed = errors.New("datastore closed")

type compatLogger struct {
	*zap.SugaredLogger
}

// for compatibility
func (logger *compatLogger) Warningf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

var _ store.KVStore = (*BadgerStore)(nil)

type BadgerStore struct {
	db *badger.DB

	closeLk   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closing   chan struct{}

	gcDiscardRatio float64
	gcSleep        time.Duration
	gcInterval     time.Duration
}

// Options wraps badger.Options with value log GC settings.
type Options struct {
	// Please refer to the Badger docs to see what this is for
	GcDiscardRatio float64

	// Interval between GC cycles; zero disables automatic GC.
	GcInterval time.Duration

	// Sleep between rounds of one GC cycle; zero means one round per interval.
	GcSleep time.Duration

	badger.Options
}

// DefaultOptions are the default options for the badger datastore.
var DefaultOptions Options

func init() {
	DefaultOptions = Options{
		GcDiscardRatio: 0.5,
		GcInterval:     15 * time.Minute,
		GcSleep:        10 * time.Second,
		Options:        badger.DefaultOptions(""),
	}
	// wallet state is small; every commit should hit disk
	DefaultOptions.Options.SyncWrites = true
	DefaultOptions.Options.CompactL0OnClose = false
}

// NewBadgerStore opens (or creates) a store at path; Dir and ValueDir of
// options are overwritten.
func NewBadgerStore(path string, options *Options) (*BadgerStore, error) {
	if options == nil {
		opt := DefaultOptions
		options = &opt
	}

	opt := options.Options
	opt.Dir = path
	opt.ValueDir = path
	opt.Logger = &compatLogger{log}

	gcSleep := options.GcSleep
	if gcSleep <= 0 {
		gcSleep = options.GcInterval
	}

	return open(opt, options.GcDiscardRatio, gcSleep, options.GcInterval)
}

// NewMemStore keeps everything in memory; used by tests and the local simulator.
func NewMemStore() (*BadgerStore, error) {
	opt := badger.DefaultOptions("").WithInMemory(true)
	opt.Logger = &compatLogger{log}
	return open(opt, 0, 0, 0)
}

func open(opt badger.Options, ratio float64, gcSleep, gcInterval time.Duration) (*BadgerStore, error) {
	db, err := badger.Open(opt)
	if err != nil {
		return nil, err
	}

	ds := &BadgerStore{
		db:             db,
		closing:        make(chan struct{}),
		gcDiscardRatio: ratio,
		gcSleep:        gcSleep,
		gcInterval:     gcInterval,
	}

	// in-memory stores have no value log
	if ds.gcInterval > 0 && !opt.InMemory {
		go ds.periodicGC()
	}

	return ds, nil
}

// periodicGC waits gcInterval after a GC that found nothing to rewrite,
// gcSleep after one that did.
func (d *BadgerStore) periodicGC() {
	timer := time.NewTimer(d.gcInterval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			switch err := d.gcOnce(); err {
			case nil:
				timer.Reset(d.gcSleep)
			case badger.ErrNoRewrite, badger.ErrRejected:
				timer.Reset(d.gcInterval)
			case ErrClosed:
				return
			default:
				log.Errorf("value log gc: %s", err)
				timer.Reset(d.gcInterval)
			}
		case <-d.closing:
			return
		}
	}
}

func (d *BadgerStore) gcOnce() error {
	return d.use(func(db *badger.DB) error {
		return db.RunValueLogGC(d.gcDiscardRatio)
	})
}

// use runs fn against the db unless the store is closed.
func (d *BadgerStore) use(fn func(db *badger.DB) error) error {
	d.closeLk.RLock()
	defer d.closeLk.RUnlock()
	if d.closed {
		return ErrClosed
	}
	return fn(d.db)
}

func (d *BadgerStore) Put(key, value []byte) error {
	return d.use(func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, value)
		})
	})
}

// Get returns nil, nil for a missing key.
func (d *BadgerStore) Get(key []byte) (val []byte, err error) {
	err = d.use(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			val, err = txnGet(txn, key)
			return err
		})
	})
	return val, err
}

func (d *BadgerStore) Has(key []byte) (ok bool, err error) {
	err = d.use(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			ok, err = txnHas(txn, key)
			return err
		})
	})
	return ok, err
}

func (d *BadgerStore) Delete(key []byte) error {
	return d.use(func(db *badger.DB) error {
		return db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
	})
}

// Iter calls fn for every pair under prefix in key order and returns how
// many calls succeeded; a failing fn skips the entry, it does not stop.
func (d *BadgerStore) Iter(prefix []byte, fn func(k, v []byte) error) int64 {
	var n int64
	err := d.use(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					log.Warnf("iter %s: %s", item.Key(), err)
					continue
				}
				if fn(item.KeyCopy(nil), val) == nil {
					n++
				}
			}
			return nil
		})
	})
	if err != nil {
		log.Warnf("iter %s: %s", prefix, err)
	}
	return n
}

func (d *BadgerStore) Close() error {
	d.closeOnce.Do(func() {
		close(d.closing)
	})

	d.closeLk.Lock()
	defer d.closeLk.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true

	return d.db.Close()
}

func txnGet(txn *badger.Txn, key []byte) ([]byte, error) {
	switch item, err := txn.Get(key); err {
	case badger.ErrKeyNotFound:
		return nil, nil
	case nil:
		return item.ValueCopy(nil)
	default:
		return nil, err
	}
}

func txnHas(txn *badger.Txn, key []byte) (bool, error) {
	switch _, err := txn.Get(key); err {
	case nil:
		return true, nil
	case badger.ErrKeyNotFound:
		return false, nil
	default:
		return false, err
	}
}
