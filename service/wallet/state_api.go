package wallet

import (
	"context"
	"sort"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

// StateAPI exposes the local state, messages and receipts.
type StateAPI struct {
	s *Service
}

func (sa *StateAPI) StateGetRoot(ctx context.Context) (types.MsgID, error) {
	return sa.s.sm.GetRoot(), nil
}

func (sa *StateAPI) StateGetHeight(ctx context.Context) (uint64, error) {
	return sa.s.ts.Height(), nil
}

func (sa *StateAPI) StateGetNonce(ctx context.Context, addr address.Address) (uint64, error) {
	return sa.s.sm.GetNonce(addr)
}

func (sa *StateAPI) StateGetWalletInfo(ctx context.Context) (*types.WalletInfo, error) {
	return sa.s.sm.GetWalletInfo(), nil
}

func (sa *StateAPI) StateGetTransaction(ctx context.Context, id uint64) (*types.PendingTx, error) {
	return sa.s.sm.GetTx(id)
}

func (sa *StateAPI) StateGetBalances(ctx context.Context) ([]*types.BalanceInfo, error) {
	bals := sa.s.sm.Balances()

	res := make([]*types.BalanceInfo, 0, len(bals))
	for cur, v := range bals {
		res = append(res, types.NewBalanceInfo(cur, v))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Currency < res[j].Currency })

	return res, nil
}

func (sa *StateAPI) StateGetMsg(ctx context.Context, mid types.MsgID) (*tx.SignedMessage, error) {
	return sa.s.ts.GetTxMsg(mid)
}

func (sa *StateAPI) StateGetReceipt(ctx context.Context, mid types.MsgID) (*tx.Receipt, error) {
	return sa.s.ts.GetReceipt(mid)
}

func (sa *StateAPI) StateGetMsgAt(ctx context.Context, ht uint64) (types.MsgID, error) {
	return sa.s.ts.GetMsgByHeight(ht)
}

func (sa *StateAPI) StatePushMessage(ctx context.Context, sm *tx.SignedMessage) (*tx.Receipt, error) {
	r, err := sa.s.pp.Push(ctx, sm)
	if err != nil {
		return nil, err
	}

	switch r.Method {
	case tx.ProposeTx, tx.SignTx, tx.DeleteTx:
		sa.s.recordPending()
	}

	return r, nil
}
