package node

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

var errChainState = xerrors.New("no local state in chain mode")

// chainState answers the state api when the wallet lives in a contract.
type chainState struct{}

var _ api.IState = chainState{}

func (chainState) StateGetRoot(context.Context) (types.MsgID, error) {
	return types.Undef, errChainState
}

func (chainState) StateGetHeight(context.Context) (uint64, error) {
	return 0, errChainState
}

func (chainState) StateGetNonce(context.Context, address.Address) (uint64, error) {
	return 0, errChainState
}

func (chainState) StateGetWalletInfo(context.Context) (*types.WalletInfo, error) {
	return nil, errChainState
}

func (chainState) StateGetTransaction(context.Context, uint64) (*types.PendingTx, error) {
	return nil, errChainState
}

func (chainState) StateGetBalances(context.Context) ([]*types.BalanceInfo, error) {
	return nil, errChainState
}

func (chainState) StateGetMsg(context.Context, types.MsgID) (*tx.SignedMessage, error) {
	return nil, errChainState
}

func (chainState) StateGetReceipt(context.Context, types.MsgID) (*tx.Receipt, error) {
	return nil, errChainState
}

func (chainState) StateGetMsgAt(context.Context, uint64) (types.MsgID, error) {
	return types.Undef, errChainState
}

func (chainState) StatePushMessage(context.Context, *tx.SignedMessage) (*tx.Receipt, error) {
	return nil, errChainState
}
