package state

import (
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

// StateMgr owns the registry, the pending transactions and the ledger.
// Every mutation holds the write lock and commits as one kv transaction;
// memory is only touched after all checks have passed.
type StateMgr struct {
	sync.RWMutex

	ds store.KVStore

	now func() time.Time

	root types.MsgID

	owner     address.Address
	admin     address.Address
	signers   []address.Address
	signerIdx map[address.Address]uint
	threshold uint32

	lastID  uint64
	pending []uint64 // insertion order
	txs     map[uint64]*pendingTxStored

	balances map[types.Currency]*big.Int
	nonces   map[address.Address]uint64
}

// NewStateMgr loads the wallet from ds; gen is only used when ds is empty.
func NewStateMgr(ds store.KVStore, gen *types.WalletGenesis) (*StateMgr, error) {
	s := &StateMgr{
		ds:  ds,
		now: time.Now,
	}

	has, err := ds.Has(store.NewKey(store.MetaTypeWalletInfo))
	if err != nil {
		return nil, err
	}

	if !has {
		if gen == nil {
			return nil, xerrors.Errorf("wallet is not initialized and no genesis is given: %w", types.ErrInvalidParams)
		}

		err = s.initGenesis(gen)
		if err != nil {
			return nil, err
		}
	}

	err = s.load()
	if err != nil {
		return nil, err
	}

	if gen != nil && has && (gen.Owner != s.owner || gen.Threshold != s.threshold || len(gen.Signers) != len(s.signers)) {
		logger.Warnw("genesis differs from stored wallet, keep stored", "owner", s.owner, "threshold", s.threshold)
	}

	logger.Infow("wallet state loaded", "owner", s.owner, "admin", s.admin, "signers", len(s.signers),
		"threshold", s.threshold, "pending", len(s.pending), "root", s.root)

	return s, nil
}

func (s *StateMgr) initGenesis(gen *types.WalletGenesis) error {
	err := gen.Validate()
	if err != nil {
		return err
	}

	admin := gen.Admin
	if admin.Empty() {
		admin = gen.Owner
	}

	wi := &walletInfoStored{
		Owner:     gen.Owner,
		Signers:   gen.Signers,
		Threshold: gen.Threshold,
	}

	val, err := wi.Serialize()
	if err != nil {
		return err
	}

	txn, err := s.ds.NewTxnStore(true)
	if err != nil {
		return err
	}
	defer txn.Discard()

	err = txn.Put(store.NewKey(store.MetaTypeWalletInfo), val)
	if err != nil {
		return err
	}

	err = txn.Put(store.NewKey(store.MetaTypeWalletAdmin), admin.Bytes())
	if err != nil {
		return err
	}

	err = txn.Put(store.NewKey(store.MetaTypeStateRoot), beginRoot.Bytes())
	if err != nil {
		return err
	}

	return txn.Commit()
}

func (s *StateMgr) load() error {
	val, err := s.ds.Get(store.NewKey(store.MetaTypeWalletInfo))
	if err != nil {
		return err
	}

	wi := new(walletInfoStored)
	err = wi.Deserialize(val)
	if err != nil {
		return err
	}

	s.owner = wi.Owner
	s.signers = wi.Signers
	s.threshold = wi.Threshold
	s.signerIdx = make(map[address.Address]uint, len(wi.Signers))
	for i, a := range wi.Signers {
		s.signerIdx[a] = uint(i)
	}

	val, err = s.ds.Get(store.NewKey(store.MetaTypeWalletAdmin))
	if err != nil {
		return err
	}
	s.admin, err = address.NewAddress(val)
	if err != nil {
		return xerrors.Errorf("load admin: %w", err)
	}

	s.root = beginRoot
	val, err = s.ds.Get(store.NewKey(store.MetaTypeStateRoot))
	if err == nil && len(val) > 0 {
		rt, err := types.FromBytes(val)
		if err == nil {
			s.root = rt
		}
	}

	s.lastID = 0
	val, err = s.ds.Get(store.NewKey(store.MetaTypeTxSeq))
	if err != nil {
		return err
	}
	if len(val) > 0 {
		s.lastID, err = decodeUint(val)
		if err != nil {
			return err
		}
	}

	s.pending = nil
	s.txs = make(map[uint64]*pendingTxStored)
	val, err = s.ds.Get(store.NewKey(store.MetaTypePendingTxList))
	if err != nil {
		return err
	}
	if len(val) > 0 {
		il := new(idList)
		err = il.Deserialize(val)
		if err != nil {
			return err
		}
		for _, id := range il.IDs {
			pt, err := s.getStoredTx(s.ds, id)
			if err != nil {
				return xerrors.Errorf("load pending tx %d: %w", id, err)
			}
			s.txs[id] = pt
			s.pending = append(s.pending, id)
		}
	}

	s.balances = make(map[types.Currency]*big.Int)
	prefix := store.NewKey(store.MetaTypeBalance, "")
	var bad []string
	s.ds.Iter(prefix, func(k, v []byte) error {
		cur, err := strconv.ParseUint(strings.TrimPrefix(string(k), string(prefix)), 10, 32)
		if err != nil {
			bad = append(bad, string(k))
			return err
		}
		s.balances[types.Currency(cur)] = new(big.Int).SetBytes(v)
		return nil
	})
	if len(bad) > 0 {
		return xerrors.Errorf("load balances: malformed keys %q", bad)
	}

	// loaded on demand
	s.nonces = make(map[address.Address]uint64)

	return nil
}

// reload resyncs memory with disk after a failed commit.
func (s *StateMgr) reload() {
	err := s.load()
	if err != nil {
		logger.Errorf("reload state: %s", err)
	}
}

// update runs fn in one transaction. fn must return before touching memory
// when it fails with a domain error.
func (s *StateMgr) update(fn func(txn store.TxnStore) error) error {
	txn, err := s.ds.NewTxnStore(true)
	if err != nil {
		return err
	}
	defer txn.Discard()

	err = fn(txn)
	if err == nil {
		err = txn.Commit()
	}

	if err != nil && types.ErrCodeOf(err) == types.CodeInternal {
		s.reload()
	}

	return err
}

func (s *StateMgr) nextRoot(mid types.MsgID, code types.ErrCode) types.MsgID {
	h := blake3.New()
	h.Write(s.root.Bytes())
	h.Write(mid.Bytes())
	h.Write(encodeUint(uint64(code)))
	res, err := types.FromBytes(h.Sum(nil))
	if err != nil {
		return types.NewMsgID(h.Sum(nil))
	}
	return res
}

func (s *StateMgr) GetRoot() types.MsgID {
	s.RLock()
	defer s.RUnlock()

	return s.root
}

// GetNonce is the nonce the next message from addr must carry.
func (s *StateMgr) GetNonce(addr address.Address) (uint64, error) {
	s.Lock()
	defer s.Unlock()

	return s.nonceOf(s.ds, addr)
}

func (s *StateMgr) nonceOf(st store.Store, addr address.Address) (uint64, error) {
	n, ok := s.nonces[addr]
	if ok {
		return n, nil
	}

	val, err := st.Get(store.NewKey(store.MetaTypeNonce, addr.Hex()))
	if err != nil {
		return 0, err
	}

	if len(val) > 0 {
		n, err = decodeUint(val)
		if err != nil {
			return 0, err
		}
	}

	s.nonces[addr] = n
	return n, nil
}

// ApplyMsg applies one verified message. A domain failure still consumes
// the nonce and is reported in the receipt; nonce and storage failures
// leave the state untouched and are returned as error.
func (s *StateMgr) ApplyMsg(msg *tx.Message, mid types.MsgID) (*tx.Receipt, error) {
	if msg == nil {
		return nil, xerrors.Errorf("nil message: %w", types.ErrInvalidParams)
	}

	s.Lock()
	defer s.Unlock()

	logger.Debugw("apply message", "from", msg.From, "nonce", msg.Nonce, "method", tx.MethodName(msg.Method), "root", s.root)

	r := &tx.Receipt{
		MsgID:  mid,
		Method: msg.Method,
	}

	err := s.update(func(txn store.TxnStore) error {
		nonce, err := s.nonceOf(txn, msg.From)
		if err != nil {
			return err
		}

		if msg.Nonce < nonce {
			return xerrors.Errorf("%s nonce expected %d, got %d: %w", msg.From, nonce, msg.Nonce, types.ErrLowNonce)
		}

		if msg.Nonce > nonce {
			return xerrors.Errorf("%s nonce expected %d, got %d: %w", msg.From, nonce, msg.Nonce, types.ErrInvalidParams)
		}

		opErr := s.applyMsg(txn, msg, r)
		if opErr != nil && types.ErrCodeOf(opErr) == types.CodeInternal {
			return opErr
		}
		r.SetErr(opErr)

		err = txn.Put(store.NewKey(store.MetaTypeNonce, msg.From.Hex()), encodeUint(nonce+1))
		if err != nil {
			return err
		}

		nroot := s.nextRoot(mid, r.Err)
		err = txn.Put(store.NewKey(store.MetaTypeStateRoot), nroot.Bytes())
		if err != nil {
			return err
		}

		s.nonces[msg.From] = nonce + 1
		s.root = nroot
		r.Root = nroot

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (s *StateMgr) applyMsg(txn store.TxnStore, msg *tx.Message, r *tx.Receipt) error {
	switch msg.Method {
	case tx.ProposeTx:
		pp := new(tx.ProposeParams)
		err := pp.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode propose params: %s: %w", err, types.ErrInvalidParams)
		}
		id, err := s.propose(txn, msg.From, pp.Kind, pp.Payload)
		r.TxID = id
		return err
	case tx.SignTx:
		tp := new(tx.TxIDParams)
		err := tp.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode sign params: %s: %w", err, types.ErrInvalidParams)
		}
		r.TxID = tp.ID
		st, err := s.signTx(txn, msg.From, tp.ID)
		r.Status = uint8(st)
		return err
	case tx.DeleteTx:
		tp := new(tx.TxIDParams)
		err := tp.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode delete params: %s: %w", err, types.ErrInvalidParams)
		}
		r.TxID = tp.ID
		return s.deleteTx(txn, msg.From, tp.ID)
	case tx.SetAdmin:
		ap := new(tx.AdminParams)
		err := ap.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode admin params: %s: %w", err, types.ErrInvalidParams)
		}
		return s.setAdmin(txn, msg.From, ap.Admin)
	case tx.Withdraw:
		ap := new(tx.AmountParams)
		err := ap.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode withdraw params: %s: %w", err, types.ErrInvalidParams)
		}
		amount, err := s.withdraw(txn, msg.From, ap.Currency, ap.Amount)
		r.Amount = amount
		return err
	case tx.Deposit:
		ap := new(tx.AmountParams)
		err := ap.Deserialize(msg.Params)
		if err != nil {
			return xerrors.Errorf("decode deposit params: %s: %w", err, types.ErrInvalidParams)
		}
		err = s.credit(txn, ap.Currency, ap.Amount)
		if err == nil {
			r.Amount = new(big.Int).Set(ap.Amount)
		}
		return err
	default:
		return xerrors.Errorf("unknown method %d: %w", msg.Method, types.ErrInvalidParams)
	}
}
