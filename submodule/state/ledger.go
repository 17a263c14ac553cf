package state

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

// GetBalance returns the balance in smallest units.
func (s *StateMgr) GetBalance(cur types.Currency) *big.Int {
	s.RLock()
	defer s.RUnlock()

	return new(big.Int).Set(s.balanceOf(cur))
}

func (s *StateMgr) Balances() map[types.Currency]*big.Int {
	s.RLock()
	defer s.RUnlock()

	out := make(map[types.Currency]*big.Int, len(s.balances))
	for c, v := range s.balances {
		out[c] = new(big.Int).Set(v)
	}
	return out
}

func (s *StateMgr) Credit(cur types.Currency, amount *big.Int) error {
	s.Lock()
	defer s.Unlock()

	return s.update(func(txn store.TxnStore) error {
		return s.credit(txn, cur, amount)
	})
}

func (s *StateMgr) Debit(cur types.Currency, amount *big.Int) error {
	s.Lock()
	defer s.Unlock()

	return s.update(func(txn store.TxnStore) error {
		return s.debit(txn, cur, amount)
	})
}

// Deposit credits funds sent by anyone.
func (s *StateMgr) Deposit(caller address.Address, cur types.Currency, amount *big.Int) error {
	s.Lock()
	defer s.Unlock()

	return s.update(func(txn store.TxnStore) error {
		err := s.credit(txn, cur, amount)
		if err == nil {
			logger.Infow("deposit", "from", caller, "currency", cur, "amount", amount)
		}
		return err
	})
}

// Withdraw pays out to the admin; a nil amount takes the whole balance.
func (s *StateMgr) Withdraw(caller address.Address, cur types.Currency, amount *big.Int) (*big.Int, error) {
	s.Lock()
	defer s.Unlock()

	var out *big.Int
	err := s.update(func(txn store.TxnStore) error {
		v, err := s.withdraw(txn, caller, cur, amount)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *StateMgr) withdraw(txn store.TxnStore, caller address.Address, cur types.Currency, amount *big.Int) (*big.Int, error) {
	if caller != s.admin {
		return nil, xerrors.Errorf("%s is not admin: %w", caller, types.ErrUnauthorized)
	}

	if amount == nil {
		amount = new(big.Int).Set(s.balanceOf(cur))
		if amount.Sign() == 0 {
			return amount, nil
		}
	}

	err := s.debit(txn, cur, amount)
	if err != nil {
		return nil, err
	}

	logger.Infow("withdraw", "to", caller, "currency", cur, "amount", amount)

	return new(big.Int).Set(amount), nil
}

func (s *StateMgr) credit(txn store.TxnStore, cur types.Currency, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return xerrors.Errorf("credit amount must be positive: %w", types.ErrInvalidParams)
	}

	nbal := new(big.Int).Add(s.balanceOf(cur), amount)

	err := s.putBalance(txn, cur, nbal)
	if err != nil {
		return err
	}

	s.balances[cur] = nbal
	return nil
}

func (s *StateMgr) debit(txn store.TxnStore, cur types.Currency, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return xerrors.Errorf("debit amount must be positive: %w", types.ErrInvalidParams)
	}

	bal := s.balanceOf(cur)
	if bal.Cmp(amount) < 0 {
		return xerrors.Errorf("debit %s of %s, have %s: %w", amount, cur, bal, types.ErrInsufficientFunds)
	}

	nbal := new(big.Int).Sub(bal, amount)

	err := s.putBalance(txn, cur, nbal)
	if err != nil {
		return err
	}

	s.balances[cur] = nbal
	return nil
}

func (s *StateMgr) balanceOf(cur types.Currency) *big.Int {
	v, ok := s.balances[cur]
	if !ok {
		return new(big.Int)
	}
	return v
}

func (s *StateMgr) putBalance(txn store.TxnStore, cur types.Currency, v *big.Int) error {
	return txn.Put(store.NewKey(store.MetaTypeBalance, uint32(cur)), v.Bytes())
}
