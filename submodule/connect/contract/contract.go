package contract

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/types"
	inter "github.com/memoio/go-betawallet/submodule/connect/contract/interface"
	"github.com/memoio/go-betawallet/submodule/metrics"
)

// Backend is what the wallet contract needs from a node; *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

var _ inter.IWalletContract = (*walletContract)(nil)

type walletContract struct {
	lk sync.Mutex // one send at a time keeps nonces in order

	backend Backend
	bc      *bind.BoundContract
	auth    *bind.TransactOpts

	retry     int
	retryWait time.Duration
}

func NewWalletContract(b Backend, addr common.Address, parsed abi.ABI, auth *bind.TransactOpts) inter.IWalletContract {
	return &walletContract{
		backend:   b,
		bc:        bind.NewBoundContract(addr, parsed, b, b, b),
		auth:      auth,
		retry:     callRetryCount,
		retryWait: callRetryWait,
	}
}

func (w *walletContract) From() common.Address {
	return w.auth.From
}

// call is read only and so safe to retry.
func (w *walletContract) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Contract, method))
	defer metrics.Timer(ctx, metrics.ContractCall)()

	var err error
	for i := 0; i < w.retry; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, types.NewRemoteError(method, ctx.Err())
			case <-time.After(w.retryWait):
			}
		}

		var out []interface{}
		err = w.bc.Call(&bind.CallOpts{Context: ctx, From: w.auth.From}, &out, method, params...)
		if err == nil {
			if len(out) == 0 {
				return nil, types.NewRemoteError(method, xerrors.New("empty result"))
			}
			return out, nil
		}

		logger.Debugw("contract call fails", "method", method, "retry", i, "err", err)
	}

	return nil, types.NewRemoteError(method, err)
}

// send submits one transaction and waits for it to be mined. It is never
// retried: a lost confirmation must not turn into a second execution.
func (w *walletContract) send(ctx context.Context, method string, value *big.Int, params ...interface{}) (*etypes.Receipt, error) {
	ctx, _ = tag.New(ctx, tag.Upsert(metrics.Contract, method))
	defer metrics.Timer(ctx, metrics.ContractCall)()

	opts := *w.auth
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}

	w.lk.Lock()
	var tx *etypes.Transaction
	var err error
	if method == methodDeposit {
		tx, err = w.bc.Transfer(&opts)
	} else {
		tx, err = w.bc.Transact(&opts, method, params...)
	}
	w.lk.Unlock()
	if err != nil {
		return nil, types.NewRemoteError(method, err)
	}

	logger.Debugw("contract tx sent", "method", method, "hash", tx.Hash())

	receipt, err := bind.WaitMined(ctx, w.backend, tx)
	if err != nil {
		return nil, types.NewRemoteError(method, xerrors.Errorf("wait %s: %w", tx.Hash(), err))
	}

	// 0 means fail
	if receipt.Status == etypes.ReceiptStatusFailed {
		if receipt.GasUsed == tx.Gas() {
			return receipt, types.NewRemoteError(method, xerrors.Errorf("tx %s exceed gas limit", tx.Hash()))
		}
		return receipt, types.NewRemoteError(method, xerrors.Errorf("tx %s mined but execution failed", tx.Hash()))
	}

	return receipt, nil
}

func (w *walletContract) callAddress(ctx context.Context, method string) (common.Address, error) {
	out, err := w.call(ctx, method)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (w *walletContract) callBig(ctx context.Context, method string) (*big.Int, error) {
	out, err := w.call(ctx, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (w *walletContract) Owner(ctx context.Context) (common.Address, error) {
	return w.callAddress(ctx, methodOwner)
}

func (w *walletContract) Admin(ctx context.Context) (common.Address, error) {
	return w.callAddress(ctx, methodAdmin)
}

func (w *walletContract) GetPendingTransactions(ctx context.Context) ([]*big.Int, error) {
	out, err := w.call(ctx, methodPending)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (w *walletContract) WalletBalance(ctx context.Context) (*big.Int, error) {
	return w.callBig(ctx, methodBalance)
}

func (w *walletContract) WalletBalanceOfToken(ctx context.Context) (*big.Int, error) {
	return w.callBig(ctx, methodTokenBal)
}

func (w *walletContract) CheckPermitting(ctx context.Context, who common.Address, id *big.Int) (bool, error) {
	out, err := w.call(ctx, methodPermitting, who, id)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (w *walletContract) TransferToToken(ctx context.Context, to common.Address, amount *big.Int, typ uint32) (*etypes.Receipt, error) {
	return w.send(ctx, methodTransfer, nil, to, amount, typ)
}

func (w *walletContract) SignTransaction(ctx context.Context, id *big.Int) (*etypes.Receipt, error) {
	return w.send(ctx, methodSign, nil, id)
}

func (w *walletContract) DeletePendingTransaction(ctx context.Context, id *big.Int) (*etypes.Receipt, error) {
	return w.send(ctx, methodDelete, nil, id)
}

func (w *walletContract) SetNewAdmin(ctx context.Context, admin common.Address) (*etypes.Receipt, error) {
	return w.send(ctx, methodSetAdmin, nil, admin)
}

func (w *walletContract) WithdrawEther(ctx context.Context) (*etypes.Receipt, error) {
	return w.send(ctx, methodWithdrawEth, nil)
}

// WithdrawToken is a state changing send.
func (w *walletContract) WithdrawToken(ctx context.Context, amount *big.Int) (*etypes.Receipt, error) {
	return w.send(ctx, methodWithdrawTok, nil, amount)
}

func (w *walletContract) Deposit(ctx context.Context, amount *big.Int) (*etypes.Receipt, error) {
	return w.send(ctx, methodDeposit, amount)
}
