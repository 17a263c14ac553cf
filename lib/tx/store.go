package tx

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

var ErrNotStored = xerrors.New("not stored")

type TxStore interface {
	GetTxMsg(mid types.MsgID) (*SignedMessage, error)
	PutTxMsg(sm *SignedMessage) (types.MsgID, error)

	GetReceipt(mid types.MsgID) (*Receipt, error)
	PutReceipt(r *Receipt) error

	GetMsgByHeight(ht uint64) (types.MsgID, error)
	Height() uint64
}

var _ TxStore = (*TxStoreImpl)(nil)

type TxStoreImpl struct {
	sync.RWMutex
	ds store.KVStore

	height uint64

	msgCache *lru.ARCCache
	rCache   *lru.TwoQueueCache
	htCache  *lru.ARCCache
}

func NewTxStore(ds store.KVStore) (*TxStoreImpl, error) {
	mc, err := lru.NewARC(1024)
	if err != nil {
		return nil, err
	}

	rc, err := lru.New2Q(1024)
	if err != nil {
		return nil, err
	}

	hc, err := lru.NewARC(1024)
	if err != nil {
		return nil, err
	}

	ts := &TxStoreImpl{
		ds: ds,

		msgCache: mc,
		rCache:   rc,
		htCache:  hc,
	}

	val, err := ds.Get(store.NewKey(store.MetaTypeMsgHeight))
	if err != nil {
		return nil, err
	}
	if len(val) > 0 {
		ts.height, err = decodeUint(val)
		if err != nil {
			return nil, err
		}
	}

	return ts, nil
}

func (ts *TxStoreImpl) GetTxMsg(mid types.MsgID) (*SignedMessage, error) {
	val, ok := ts.msgCache.Get(mid)
	if ok {
		return val.(*SignedMessage), nil
	}

	key := store.NewKey(store.MetaTypeMsg, mid.Hex())

	res, err := ts.ds.Get(key)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, xerrors.Errorf("msg %s: %w", mid, ErrNotStored)
	}

	sm := new(SignedMessage)
	_, err = sm.Deserialize(res)
	if err != nil {
		return nil, err
	}

	ts.msgCache.Add(mid, sm)

	return sm, nil
}

func (ts *TxStoreImpl) PutTxMsg(sm *SignedMessage) (types.MsgID, error) {
	mid, err := sm.Hash()
	if err != nil {
		return mid, err
	}

	ok := ts.msgCache.Contains(mid)
	if ok {
		return mid, nil
	}

	key := store.NewKey(store.MetaTypeMsg, mid.Hex())
	sbyte, err := sm.Serialize()
	if err != nil {
		return mid, err
	}

	err = ts.ds.Put(key, sbyte)
	if err != nil {
		return mid, err
	}

	ts.msgCache.Add(mid, sm)

	return mid, nil
}

func (ts *TxStoreImpl) GetReceipt(mid types.MsgID) (*Receipt, error) {
	val, ok := ts.rCache.Get(mid)
	if ok {
		return val.(*Receipt), nil
	}

	res, err := ts.ds.Get(store.NewKey(store.MetaTypeReceipt, mid.Hex()))
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, xerrors.Errorf("receipt %s: %w", mid, ErrNotStored)
	}

	r := new(Receipt)
	err = r.Deserialize(res)
	if err != nil {
		return nil, err
	}

	ts.rCache.Add(mid, r)

	return r, nil
}

// PutReceipt stores r and indexes its message at r.Height.
func (ts *TxStoreImpl) PutReceipt(r *Receipt) error {
	ts.Lock()
	defer ts.Unlock()

	rbyte, err := r.Serialize()
	if err != nil {
		return err
	}

	txn, err := ts.ds.NewTxnStore(true)
	if err != nil {
		return err
	}
	defer txn.Discard()

	err = txn.Put(store.NewKey(store.MetaTypeReceipt, r.MsgID.Hex()), rbyte)
	if err != nil {
		return err
	}

	err = txn.Put(store.NewKey(store.MetaTypeMsgHeight, r.Height), r.MsgID.Bytes())
	if err != nil {
		return err
	}

	if r.Height > ts.height {
		err = txn.Put(store.NewKey(store.MetaTypeMsgHeight), encodeUint(r.Height))
		if err != nil {
			return err
		}
	}

	err = txn.Commit()
	if err != nil {
		return err
	}

	if r.Height > ts.height {
		ts.height = r.Height
	}

	ts.rCache.Add(r.MsgID, r)
	ts.htCache.Add(r.Height, r.MsgID)

	return nil
}

func (ts *TxStoreImpl) GetMsgByHeight(ht uint64) (types.MsgID, error) {
	val, ok := ts.htCache.Get(ht)
	if ok {
		return val.(types.MsgID), nil
	}

	res, err := ts.ds.Get(store.NewKey(store.MetaTypeMsgHeight, ht))
	if err != nil {
		return types.Undef, err
	}

	if len(res) == 0 {
		return types.Undef, xerrors.Errorf("height %d: %w", ht, ErrNotStored)
	}

	mid, err := types.FromBytes(res)
	if err != nil {
		return types.Undef, err
	}

	ts.htCache.Add(ht, mid)

	return mid, nil
}

// Height is the height of the last stored receipt.
func (ts *TxStoreImpl) Height() uint64 {
	ts.RLock()
	defer ts.RUnlock()
	return ts.height
}
