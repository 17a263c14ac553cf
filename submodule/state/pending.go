package state

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

// Propose stores a new pending transaction and returns its id.
// The proposer must be a signer or the admin; proposing is not a signature.
func (s *StateMgr) Propose(caller address.Address, kind types.TxKind, p types.Payload) (uint64, error) {
	s.Lock()
	defer s.Unlock()

	var id uint64
	err := s.update(func(txn store.TxnStore) error {
		nid, err := s.propose(txn, caller, kind, p)
		id = nid
		return err
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *StateMgr) propose(txn store.TxnStore, caller address.Address, kind types.TxKind, p types.Payload) (uint64, error) {
	_, isSigner := s.signerIdx[caller]
	if !isSigner && caller != s.admin {
		return 0, xerrors.Errorf("%s cannot propose: %w", caller, types.ErrUnauthorized)
	}

	err := p.Validate(kind)
	if err != nil {
		return 0, err
	}
	p.Amount = new(big.Int).Set(p.Amount)

	now := s.now().Unix()
	pt := &pendingTxStored{
		ID:        s.lastID + 1,
		Proposer:  caller,
		Kind:      kind,
		Payload:   p,
		Status:    types.TxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	npending := make([]uint64, len(s.pending), len(s.pending)+1)
	copy(npending, s.pending)
	npending = append(npending, pt.ID)

	err = s.putTx(txn, pt)
	if err != nil {
		return 0, err
	}

	err = s.putPendingList(txn, npending)
	if err != nil {
		return 0, err
	}

	err = txn.Put(store.NewKey(store.MetaTypeTxSeq), encodeUint(pt.ID))
	if err != nil {
		return 0, err
	}

	s.lastID = pt.ID
	s.pending = npending
	s.txs[pt.ID] = pt

	logger.Infow("tx proposed", "id", pt.ID, "proposer", caller, "kind", kind,
		"to", p.Beneficiary, "amount", p.Amount, "currency", p.Currency)

	return pt.ID, nil
}

// GetPending lists the ids still waiting for quorum, oldest first.
func (s *StateMgr) GetPending() []uint64 {
	s.RLock()
	defer s.RUnlock()

	out := make([]uint64, len(s.pending))
	copy(out, s.pending)
	return out
}

// GetTx returns a transaction in any status.
func (s *StateMgr) GetTx(id uint64) (*types.PendingTx, error) {
	s.RLock()
	defer s.RUnlock()

	pt, err := s.findTx(s.ds, id)
	if err != nil {
		return nil, err
	}

	return s.toPendingTx(pt), nil
}

// DeleteTx drops a pending transaction; allowed for the admin and the proposer.
func (s *StateMgr) DeleteTx(caller address.Address, id uint64) error {
	s.Lock()
	defer s.Unlock()

	return s.update(func(txn store.TxnStore) error {
		return s.deleteTx(txn, caller, id)
	})
}

func (s *StateMgr) deleteTx(txn store.TxnStore, caller address.Address, id uint64) error {
	pt, ok := s.txs[id]
	if !ok {
		return xerrors.Errorf("tx %d is not pending: %w", id, types.ErrNotFound)
	}

	if caller != s.admin && caller != pt.Proposer {
		return xerrors.Errorf("%s cannot delete tx %d: %w", caller, id, types.ErrUnauthorized)
	}

	npt := pt.copy()
	npt.Status = types.TxDeleted
	npt.UpdatedAt = s.now().Unix()

	npending := removeID(s.pending, id)

	err := s.putTx(txn, npt)
	if err != nil {
		return err
	}

	err = s.putPendingList(txn, npending)
	if err != nil {
		return err
	}

	s.pending = npending
	delete(s.txs, id)

	logger.Infow("tx deleted", "id", id, "by", caller)

	return nil
}

// findTx looks in memory first, then in st; missing ids are ErrNotFound.
func (s *StateMgr) findTx(st store.Store, id uint64) (*pendingTxStored, error) {
	pt, ok := s.txs[id]
	if ok {
		return pt, nil
	}

	if id == 0 || id > s.lastID {
		return nil, xerrors.Errorf("tx %d: %w", id, types.ErrNotFound)
	}

	return s.getStoredTx(st, id)
}

func (s *StateMgr) getStoredTx(st store.Store, id uint64) (*pendingTxStored, error) {
	val, err := st.Get(store.NewKey(store.MetaTypePendingTx, id))
	if err != nil {
		return nil, err
	}

	if len(val) == 0 {
		return nil, xerrors.Errorf("tx %d: %w", id, types.ErrNotFound)
	}

	pt := new(pendingTxStored)
	err = pt.Deserialize(val)
	if err != nil {
		return nil, err
	}

	return pt, nil
}

func (s *StateMgr) putTx(txn store.TxnStore, pt *pendingTxStored) error {
	val, err := pt.Serialize()
	if err != nil {
		return err
	}

	return txn.Put(store.NewKey(store.MetaTypePendingTx, pt.ID), val)
}

func (s *StateMgr) putPendingList(txn store.TxnStore, ids []uint64) error {
	il := &idList{IDs: ids}
	val, err := il.Serialize()
	if err != nil {
		return err
	}

	return txn.Put(store.NewKey(store.MetaTypePendingTxList), val)
}

func (s *StateMgr) toPendingTx(pt *pendingTxStored) *types.PendingTx {
	bs := pt.signed()
	sigs := make([]address.Address, 0, bs.Count())
	for i, a := range s.signers {
		if bs.Test(uint(i)) {
			sigs = append(sigs, a)
		}
	}

	npt := pt.copy()

	return &types.PendingTx{
		ID:         npt.ID,
		Proposer:   npt.Proposer,
		Kind:       npt.Kind,
		Payload:    npt.Payload,
		Signatures: sigs,
		Status:     npt.Status,
		CreatedAt:  npt.CreatedAt,
		UpdatedAt:  npt.UpdatedAt,
	}
}
