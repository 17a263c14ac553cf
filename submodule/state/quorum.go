package state

import (
	"context"
	"math/big"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
	"github.com/memoio/go-betawallet/submodule/metrics"
)

// CheckPermitting reports whether who may still sign id: who is a signer,
// the tx is pending and who has not signed it yet.
// Unknown and deleted ids return ErrNotFound.
func (s *StateMgr) CheckPermitting(who address.Address, id uint64) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	pt, err := s.findTx(s.ds, id)
	if err != nil {
		return false, err
	}

	switch pt.Status {
	case types.TxDeleted:
		return false, xerrors.Errorf("tx %d is deleted: %w", id, types.ErrNotFound)
	case types.TxExecuted:
		return false, nil
	}

	idx, ok := s.signerIdx[who]
	if !ok {
		return false, nil
	}

	return !pt.signed().Test(idx), nil
}

// SignTx adds the signature of caller. The signature that reaches the
// threshold executes the tx and debits the ledger in the same commit;
// when the ledger cannot cover it, nothing changes.
func (s *StateMgr) SignTx(caller address.Address, id uint64) (types.TxStatus, error) {
	s.Lock()
	defer s.Unlock()

	var st types.TxStatus
	err := s.update(func(txn store.TxnStore) error {
		nst, err := s.signTx(txn, caller, id)
		st = nst
		return err
	})
	if err != nil {
		return st, err
	}

	return st, nil
}

func (s *StateMgr) signTx(txn store.TxnStore, caller address.Address, id uint64) (types.TxStatus, error) {
	pt, ok := s.txs[id]
	if !ok {
		spt, err := s.findTx(txn, id)
		if err != nil {
			return types.TxPending, err
		}

		switch spt.Status {
		case types.TxExecuted:
			return spt.Status, xerrors.Errorf("tx %d: %w", id, types.ErrAlreadyExecuted)
		default:
			return spt.Status, xerrors.Errorf("tx %d is deleted: %w", id, types.ErrNotFound)
		}
	}

	idx, ok := s.signerIdx[caller]
	if !ok {
		return pt.Status, xerrors.Errorf("%s is not a signer: %w", caller, types.ErrUnauthorized)
	}

	bs := pt.signed()
	if bs.Test(idx) {
		return pt.Status, xerrors.Errorf("%s on tx %d: %w", caller, id, types.ErrAlreadySigned)
	}

	nbs := bs.Clone()
	nbs.Set(idx)

	npt := pt.copy()
	npt.Signed.Val = nbs.Bytes()
	npt.UpdatedAt = s.now().Unix()

	executed := nbs.Count() >= uint(s.threshold)

	var nbal *big.Int
	cur := npt.Payload.Currency
	if executed {
		bal := s.balanceOf(cur)
		if bal.Cmp(npt.Payload.Amount) < 0 {
			return pt.Status, xerrors.Errorf("tx %d needs %s of %s, have %s: %w",
				id, npt.Payload.Amount, cur, bal, types.ErrInsufficientFunds)
		}
		nbal = new(big.Int).Sub(bal, npt.Payload.Amount)
		npt.Status = types.TxExecuted
	}

	err := s.putTx(txn, npt)
	if err != nil {
		return pt.Status, err
	}

	var npending []uint64
	if executed {
		npending = removeID(s.pending, id)
		err = s.putPendingList(txn, npending)
		if err != nil {
			return pt.Status, err
		}

		err = s.putBalance(txn, cur, nbal)
		if err != nil {
			return pt.Status, err
		}
	}

	if executed {
		s.pending = npending
		s.balances[cur] = nbal
		delete(s.txs, id)

		ctx, _ := tag.New(context.Background(), tag.Upsert(metrics.TxKind, npt.Kind.String()))
		stats.Record(ctx, metrics.TxExecuted.M(1))

		logger.Infow("tx executed", "id", id, "kind", npt.Kind, "to", npt.Payload.Beneficiary,
			"amount", npt.Payload.Amount, "currency", cur, "signatures", nbs.Count())
	} else {
		s.txs[id] = npt
		logger.Infow("tx signed", "id", id, "signer", caller, "signatures", nbs.Count(), "threshold", s.threshold)
	}

	return npt.Status, nil
}
