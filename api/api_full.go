package api

import (
	"context"
	"math/big"

	"github.com/filecoin-project/go-jsonrpc/auth"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

type FullNode interface {
	IAuth
	ICommon
	IConfig
	IWallet
	IMultiSig
	IState
}

// json api auth and verify
type IAuth interface {
	AuthVerify(context.Context, string) ([]auth.Permission, error)
	AuthNew(context.Context, []auth.Permission) ([]byte, error)
}

type ICommon interface {
	Version(context.Context) (string, error)
	Shutdown(context.Context) error
}

// config
type IConfig interface {
	ConfigSet(context.Context, string, string) error
	ConfigGet(context.Context, string) (interface{}, error)
}

// wallet ops
type IWallet interface {
	WalletNew(context.Context, types.KeyType) (address.Address, error)
	WalletSign(context.Context, address.Address, []byte) ([]byte, error)
	WalletList(context.Context) ([]address.Address, error)
	WalletHas(context.Context, address.Address) (bool, error)
	WalletDelete(context.Context, address.Address) error
	WalletExport(context.Context, address.Address, string) (*types.KeyInfo, error)
	WalletImport(context.Context, *types.KeyInfo) (address.Address, error)
	WalletDefault(context.Context) (address.Address, error)
}

// IMultiSig is served by the local state machine and by the contract gateway.
// An empty from means the node's default account.
type IMultiSig interface {
	MsigGetOwner(ctx context.Context) (address.Address, error)
	MsigGetAdmin(ctx context.Context) (address.Address, error)
	MsigSetAdmin(ctx context.Context, from, admin address.Address) error

	MsigGetPending(ctx context.Context) ([]uint64, error)
	MsigCheckPermitting(ctx context.Context, who address.Address, id uint64) (bool, error)

	MsigPropose(ctx context.Context, from address.Address, kind types.TxKind, p types.Payload) (uint64, error)
	MsigSign(ctx context.Context, from address.Address, id uint64) (types.TxStatus, error)
	MsigDelete(ctx context.Context, from address.Address, id uint64) error

	MsigBalance(ctx context.Context, cur types.Currency) (*types.BalanceInfo, error)
	MsigDeposit(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) error
	// nil amount withdraws everything; returns the amount moved
	MsigWithdraw(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) (*big.Int, error)
}

type IState interface {
	StateGetRoot(context.Context) (types.MsgID, error)
	StateGetHeight(context.Context) (uint64, error)
	StateGetNonce(context.Context, address.Address) (uint64, error)
	StateGetWalletInfo(context.Context) (*types.WalletInfo, error)
	StateGetTransaction(context.Context, uint64) (*types.PendingTx, error)
	StateGetBalances(context.Context) ([]*types.BalanceInfo, error)

	StateGetMsg(context.Context, types.MsgID) (*tx.SignedMessage, error)
	StateGetReceipt(context.Context, types.MsgID) (*tx.Receipt, error)
	StateGetMsgAt(context.Context, uint64) (types.MsgID, error)

	// externally signed message
	StatePushMessage(context.Context, *tx.SignedMessage) (*tx.Receipt, error)
}
