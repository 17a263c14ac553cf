package state

import (
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

func (s *StateMgr) GetOwner() address.Address {
	s.RLock()
	defer s.RUnlock()
	return s.owner
}

func (s *StateMgr) GetAdmin() address.Address {
	s.RLock()
	defer s.RUnlock()
	return s.admin
}

func (s *StateMgr) GetSigners() []address.Address {
	s.RLock()
	defer s.RUnlock()

	out := make([]address.Address, len(s.signers))
	copy(out, s.signers)
	return out
}

func (s *StateMgr) GetThreshold() uint32 {
	s.RLock()
	defer s.RUnlock()
	return s.threshold
}

func (s *StateMgr) GetWalletInfo() *types.WalletInfo {
	s.RLock()
	defer s.RUnlock()

	signers := make([]address.Address, len(s.signers))
	copy(signers, s.signers)

	return &types.WalletInfo{
		Owner:     s.owner,
		Admin:     s.admin,
		Signers:   signers,
		Threshold: s.threshold,
		Pending:   len(s.pending),
		Root:      s.root,
	}
}

// SetAdmin replaces the admin; only the current admin may call it.
func (s *StateMgr) SetAdmin(caller, newAdmin address.Address) error {
	s.Lock()
	defer s.Unlock()

	return s.update(func(txn store.TxnStore) error {
		return s.setAdmin(txn, caller, newAdmin)
	})
}

func (s *StateMgr) setAdmin(txn store.TxnStore, caller, newAdmin address.Address) error {
	if caller != s.admin {
		return xerrors.Errorf("%s is not admin: %w", caller, types.ErrUnauthorized)
	}

	if newAdmin.Empty() {
		return xerrors.Errorf("empty admin: %w", types.ErrInvalidParams)
	}

	err := txn.Put(store.NewKey(store.MetaTypeWalletAdmin), newAdmin.Bytes())
	if err != nil {
		return err
	}

	logger.Infow("admin changed", "from", s.admin, "to", newAdmin)
	s.admin = newAdmin

	return nil
}
