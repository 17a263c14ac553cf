package wallet

import (
	"context"
	"math/big"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

func (s *Service) MsigGetOwner(ctx context.Context) (address.Address, error) {
	return s.sm.GetOwner(), nil
}

func (s *Service) MsigGetAdmin(ctx context.Context) (address.Address, error) {
	return s.sm.GetAdmin(), nil
}

func (s *Service) MsigSetAdmin(ctx context.Context, from, admin address.Address) error {
	_, err := s.push(ctx, from, tx.SetAdmin, &tx.AdminParams{Admin: admin})
	return err
}

func (s *Service) MsigGetPending(ctx context.Context) ([]uint64, error) {
	return s.sm.GetPending(), nil
}

func (s *Service) MsigCheckPermitting(ctx context.Context, who address.Address, id uint64) (bool, error) {
	return s.sm.CheckPermitting(who, id)
}

func (s *Service) MsigPropose(ctx context.Context, from address.Address, kind types.TxKind, p types.Payload) (uint64, error) {
	r, err := s.push(ctx, from, tx.ProposeTx, &tx.ProposeParams{Kind: kind, Payload: p})
	if err != nil {
		return 0, err
	}
	return r.TxID, nil
}

func (s *Service) MsigSign(ctx context.Context, from address.Address, id uint64) (types.TxStatus, error) {
	r, err := s.push(ctx, from, tx.SignTx, &tx.TxIDParams{ID: id})
	if err != nil {
		return types.TxPending, err
	}
	return types.TxStatus(r.Status), nil
}

func (s *Service) MsigDelete(ctx context.Context, from address.Address, id uint64) error {
	_, err := s.push(ctx, from, tx.DeleteTx, &tx.TxIDParams{ID: id})
	return err
}

func (s *Service) MsigBalance(ctx context.Context, cur types.Currency) (*types.BalanceInfo, error) {
	return types.NewBalanceInfo(cur, s.sm.GetBalance(cur)), nil
}

func (s *Service) MsigDeposit(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) error {
	_, err := s.push(ctx, from, tx.Deposit, &tx.AmountParams{Currency: cur, Amount: amount})
	return err
}

func (s *Service) MsigWithdraw(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) (*big.Int, error) {
	r, err := s.push(ctx, from, tx.Withdraw, &tx.AmountParams{Currency: cur, Amount: amount})
	if err != nil {
		return nil, err
	}
	if r.Amount == nil {
		return new(big.Int), nil
	}
	return r.Amount, nil
}
