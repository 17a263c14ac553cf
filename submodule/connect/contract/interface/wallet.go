package inter

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// IWalletContract is the typed surface of the deployed multisig wallet.
// Send methods return once the transaction is mined and succeeded.
type IWalletContract interface {
	From() common.Address

	// view
	Owner(ctx context.Context) (common.Address, error)
	Admin(ctx context.Context) (common.Address, error)
	GetPendingTransactions(ctx context.Context) ([]*big.Int, error)
	WalletBalance(ctx context.Context) (*big.Int, error)
	WalletBalanceOfToken(ctx context.Context) (*big.Int, error)
	CheckPermitting(ctx context.Context, who common.Address, id *big.Int) (bool, error)

	// send
	TransferToToken(ctx context.Context, to common.Address, amount *big.Int, typ uint32) (*types.Receipt, error)
	SignTransaction(ctx context.Context, id *big.Int) (*types.Receipt, error)
	DeletePendingTransaction(ctx context.Context, id *big.Int) (*types.Receipt, error)
	SetNewAdmin(ctx context.Context, admin common.Address) (*types.Receipt, error)
	WithdrawEther(ctx context.Context) (*types.Receipt, error)
	WithdrawToken(ctx context.Context, amount *big.Int) (*types.Receipt, error)
	Deposit(ctx context.Context, amount *big.Int) (*types.Receipt, error)
}
