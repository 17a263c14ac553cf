package contract

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
	inter "github.com/memoio/go-betawallet/submodule/connect/contract/interface"
)

var _ api.IMultiSig = (*ContractMgr)(nil)

// ContractMgr serves the multisig api from the deployed wallet contract.
type ContractMgr struct {
	ins  inter.IWalletContract
	from address.Address

	close func()
}

type Options struct {
	EndPoint string
	Contract string
	ABIPath  string
	ChainID  int64 // 0 asks the endpoint
}

// NewContractMgr dials the endpoint and binds the contract with ki as sender.
func NewContractMgr(ctx context.Context, opts Options, ki *types.KeyInfo) (*ContractMgr, error) {
	logger.Debug("create contract mgr: ", opts.EndPoint, ", ", opts.Contract)

	if !common.IsHexAddress(opts.Contract) {
		return nil, xerrors.Errorf("contract address %q: %w", opts.Contract, types.ErrInvalidParams)
	}

	parsed, err := LoadABI(opts.ABIPath)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, opts.EndPoint)
	if err != nil {
		return nil, types.NewRemoteError("dial", xerrors.Errorf("get client from %s fail: %w", opts.EndPoint, err))
	}

	chainID := big.NewInt(opts.ChainID)
	if opts.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, types.NewRemoteError("chainID", err)
		}
	}

	auth, err := MakeAuth(chainID, ki)
	if err != nil {
		client.Close()
		return nil, err
	}

	cm := newContractMgr(NewWalletContract(client, common.HexToAddress(opts.Contract), parsed, auth))
	cm.close = client.Close

	return cm, nil
}

func newContractMgr(ins inter.IWalletContract) *ContractMgr {
	return &ContractMgr{
		ins:  ins,
		from: address.FromEth(ins.From()),
	}
}

func (cm *ContractMgr) Close() {
	if cm.close != nil {
		cm.close()
	}
}

// checkFrom only accepts the bound key as sender.
func (cm *ContractMgr) checkFrom(from address.Address) error {
	if !from.Empty() && from != cm.from {
		return xerrors.Errorf("contract sender is %s, not %s: %w", cm.from, from, types.ErrUnauthorized)
	}
	return nil
}

func (cm *ContractMgr) MsigGetOwner(ctx context.Context) (address.Address, error) {
	a, err := cm.ins.Owner(ctx)
	if err != nil {
		return address.Undef, err
	}
	return address.FromEth(a), nil
}

func (cm *ContractMgr) MsigGetAdmin(ctx context.Context) (address.Address, error) {
	a, err := cm.ins.Admin(ctx)
	if err != nil {
		return address.Undef, err
	}
	return address.FromEth(a), nil
}

func (cm *ContractMgr) MsigSetAdmin(ctx context.Context, from, admin address.Address) error {
	err := cm.checkFrom(from)
	if err != nil {
		return err
	}

	if admin.Empty() {
		return xerrors.Errorf("empty admin: %w", types.ErrInvalidParams)
	}

	_, err = cm.ins.SetNewAdmin(ctx, admin.ToEth())
	return err
}

func (cm *ContractMgr) pending(ctx context.Context) ([]uint64, error) {
	ids, err := cm.ins.GetPendingTransactions(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !id.IsUint64() {
			return nil, types.NewRemoteError(methodPending, xerrors.Errorf("id %s overflows", id))
		}
		res = append(res, id.Uint64())
	}
	return res, nil
}

func (cm *ContractMgr) MsigGetPending(ctx context.Context) ([]uint64, error) {
	return cm.pending(ctx)
}

func (cm *ContractMgr) MsigCheckPermitting(ctx context.Context, who address.Address, id uint64) (bool, error) {
	return cm.ins.CheckPermitting(ctx, who.ToEth(), new(big.Int).SetUint64(id))
}

// MsigPropose calls transferToToken; the new id is the one that shows up in
// the pending list.
func (cm *ContractMgr) MsigPropose(ctx context.Context, from address.Address, kind types.TxKind, p types.Payload) (uint64, error) {
	err := cm.checkFrom(from)
	if err != nil {
		return 0, err
	}

	err = p.Validate(kind)
	if err != nil {
		return 0, err
	}

	if kind == types.TxWithdrawal {
		return 0, xerrors.Errorf("contract has no %s proposal: %w", kind, types.ErrInvalidParams)
	}

	before, err := cm.pending(ctx)
	if err != nil {
		return 0, err
	}

	_, err = cm.ins.TransferToToken(ctx, p.Beneficiary.ToEth(), p.Amount, uint32(p.Currency))
	if err != nil {
		return 0, err
	}

	after, err := cm.pending(ctx)
	if err != nil {
		return 0, err
	}

	news := diffIDs(before, after)
	if len(news) == 0 {
		return 0, types.NewRemoteError(methodTransfer, xerrors.New("proposal not in pending list"))
	}
	if len(news) > 1 {
		logger.Warnw("several proposals appeared, take the newest", "ids", news)
	}

	return news[len(news)-1], nil
}

func diffIDs(before, after []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}

	var res []uint64
	for _, id := range after {
		if _, ok := seen[id]; !ok {
			res = append(res, id)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// MsigSign reports executed once the id left the pending list.
func (cm *ContractMgr) MsigSign(ctx context.Context, from address.Address, id uint64) (types.TxStatus, error) {
	err := cm.checkFrom(from)
	if err != nil {
		return types.TxPending, err
	}

	_, err = cm.ins.SignTransaction(ctx, new(big.Int).SetUint64(id))
	if err != nil {
		return types.TxPending, err
	}

	ids, err := cm.pending(ctx)
	if err != nil {
		return types.TxPending, err
	}
	for _, pid := range ids {
		if pid == id {
			return types.TxPending, nil
		}
	}

	return types.TxExecuted, nil
}

func (cm *ContractMgr) MsigDelete(ctx context.Context, from address.Address, id uint64) error {
	err := cm.checkFrom(from)
	if err != nil {
		return err
	}

	_, err = cm.ins.DeletePendingTransaction(ctx, new(big.Int).SetUint64(id))
	return err
}

// MsigBalance reads walletBalance for the native coin and
// walletBalanceOfToken for any token.
func (cm *ContractMgr) MsigBalance(ctx context.Context, cur types.Currency) (*types.BalanceInfo, error) {
	var val *big.Int
	var err error
	if cur.IsNative() {
		val, err = cm.ins.WalletBalance(ctx)
	} else {
		val, err = cm.ins.WalletBalanceOfToken(ctx)
	}
	if err != nil {
		return nil, err
	}

	return types.NewBalanceInfo(cur, val), nil
}

func (cm *ContractMgr) MsigDeposit(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) error {
	err := cm.checkFrom(from)
	if err != nil {
		return err
	}

	if !cur.IsNative() {
		return xerrors.Errorf("contract only receives the native coin: %w", types.ErrInvalidParams)
	}

	if amount == nil || amount.Sign() <= 0 {
		return xerrors.Errorf("amount must be positive: %w", types.ErrInvalidParams)
	}

	_, err = cm.ins.Deposit(ctx, amount)
	return err
}

// MsigWithdraw maps to withdraw_ether, which always moves the whole native
// balance, or to withdraw_token(amount).
func (cm *ContractMgr) MsigWithdraw(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) (*big.Int, error) {
	err := cm.checkFrom(from)
	if err != nil {
		return nil, err
	}

	if amount != nil && amount.Sign() <= 0 {
		return nil, xerrors.Errorf("amount must be positive: %w", types.ErrInvalidParams)
	}

	if cur.IsNative() {
		bal, err := cm.ins.WalletBalance(ctx)
		if err != nil {
			return nil, err
		}

		if amount != nil && amount.Cmp(bal) != 0 {
			return nil, xerrors.Errorf("withdraw_ether moves the whole balance %s: %w", bal, types.ErrInvalidParams)
		}

		_, err = cm.ins.WithdrawEther(ctx)
		if err != nil {
			return nil, err
		}
		return bal, nil
	}

	if amount == nil {
		amount, err = cm.ins.WalletBalanceOfToken(ctx)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			return amount, nil
		}
	}

	_, err = cm.ins.WithdrawToken(ctx, amount)
	if err != nil {
		return nil, err
	}

	return new(big.Int).Set(amount), nil
}
