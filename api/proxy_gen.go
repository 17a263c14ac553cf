package api

import (
	"context"
	"math/big"

	"github.com/filecoin-project/go-jsonrpc/auth"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/tx"
	"github.com/memoio/go-betawallet/lib/types"
)

// common API permissions constraints
type CommonStruct struct {
	Internal struct {
		AuthVerify func(ctx context.Context, token string) ([]auth.Permission, error) `perm:"read"`
		AuthNew    func(ctx context.Context, erms []auth.Permission) ([]byte, error)  `perm:"admin"`

		Version  func(context.Context) (string, error) `perm:"read"`
		Shutdown func(context.Context) error           `perm:"admin"`

		ConfigSet func(context.Context, string, string) error        `perm:"admin"`
		ConfigGet func(context.Context, string) (interface{}, error) `perm:"write"`

		WalletNew     func(context.Context, types.KeyType) (address.Address, error)          `perm:"write"`
		WalletSign    func(context.Context, address.Address, []byte) ([]byte, error)         `perm:"sign"`
		WalletList    func(context.Context) ([]address.Address, error)                       `perm:"write"`
		WalletHas     func(context.Context, address.Address) (bool, error)                   `perm:"write"`
		WalletDelete  func(context.Context, address.Address) error                           `perm:"admin"`
		WalletExport  func(context.Context, address.Address, string) (*types.KeyInfo, error) `perm:"admin"`
		WalletImport  func(context.Context, *types.KeyInfo) (address.Address, error)         `perm:"admin"`
		WalletDefault func(context.Context) (address.Address, error)                         `perm:"read"`

		StateGetRoot        func(context.Context) (types.MsgID, error)                   `perm:"read"`
		StateGetHeight      func(context.Context) (uint64, error)                        `perm:"read"`
		StateGetNonce       func(context.Context, address.Address) (uint64, error)       `perm:"read"`
		StateGetWalletInfo  func(context.Context) (*types.WalletInfo, error)             `perm:"read"`
		StateGetTransaction func(context.Context, uint64) (*types.PendingTx, error)      `perm:"read"`
		StateGetBalances    func(context.Context) ([]*types.BalanceInfo, error)          `perm:"read"`
		StateGetMsg         func(context.Context, types.MsgID) (*tx.SignedMessage, error) `perm:"read"`
		StateGetReceipt     func(context.Context, types.MsgID) (*tx.Receipt, error)      `perm:"read"`
		StateGetMsgAt       func(context.Context, uint64) (types.MsgID, error)           `perm:"read"`
		StatePushMessage    func(context.Context, *tx.SignedMessage) (*tx.Receipt, error) `perm:"write"`
	}
}

type FullNodeStruct struct {
	CommonStruct

	Internal struct {
		MsigGetOwner        func(context.Context) (address.Address, error)                                      `perm:"read"`
		MsigGetAdmin        func(context.Context) (address.Address, error)                                      `perm:"read"`
		MsigSetAdmin        func(context.Context, address.Address, address.Address) error                       `perm:"sign"`
		MsigGetPending      func(context.Context) ([]uint64, error)                                             `perm:"read"`
		MsigCheckPermitting func(context.Context, address.Address, uint64) (bool, error)                        `perm:"read"`
		MsigPropose         func(context.Context, address.Address, types.TxKind, types.Payload) (uint64, error) `perm:"sign"`
		MsigSign            func(context.Context, address.Address, uint64) (types.TxStatus, error)              `perm:"sign"`
		MsigDelete          func(context.Context, address.Address, uint64) error                                `perm:"sign"`
		MsigBalance         func(context.Context, types.Currency) (*types.BalanceInfo, error)                   `perm:"read"`
		MsigDeposit         func(context.Context, address.Address, types.Currency, *big.Int) error              `perm:"sign"`
		MsigWithdraw        func(context.Context, address.Address, types.Currency, *big.Int) (*big.Int, error)  `perm:"sign"`
	}
}

func (s *CommonStruct) AuthVerify(ctx context.Context, token string) ([]auth.Permission, error) {
	return s.Internal.AuthVerify(ctx, token)
}

func (s *CommonStruct) AuthNew(ctx context.Context, perms []auth.Permission) ([]byte, error) {
	return s.Internal.AuthNew(ctx, perms)
}

func (s *CommonStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}

func (s *CommonStruct) Shutdown(ctx context.Context) error {
	return s.Internal.Shutdown(ctx)
}

func (s *CommonStruct) ConfigSet(ctx context.Context, key, val string) error {
	return s.Internal.ConfigSet(ctx, key, val)
}

func (s *CommonStruct) ConfigGet(ctx context.Context, key string) (interface{}, error) {
	return s.Internal.ConfigGet(ctx, key)
}

func (s *CommonStruct) WalletNew(ctx context.Context, typ types.KeyType) (address.Address, error) {
	return s.Internal.WalletNew(ctx, typ)
}

func (s *CommonStruct) WalletSign(ctx context.Context, addr address.Address, msg []byte) ([]byte, error) {
	return s.Internal.WalletSign(ctx, addr, msg)
}

func (s *CommonStruct) WalletHas(ctx context.Context, addr address.Address) (bool, error) {
	return s.Internal.WalletHas(ctx, addr)
}

func (s *CommonStruct) WalletDelete(ctx context.Context, addr address.Address) error {
	return s.Internal.WalletDelete(ctx, addr)
}

func (s *CommonStruct) WalletList(ctx context.Context) ([]address.Address, error) {
	return s.Internal.WalletList(ctx)
}

func (s *CommonStruct) WalletExport(ctx context.Context, addr address.Address, pw string) (*types.KeyInfo, error) {
	return s.Internal.WalletExport(ctx, addr, pw)
}

func (s *CommonStruct) WalletImport(ctx context.Context, ki *types.KeyInfo) (address.Address, error) {
	return s.Internal.WalletImport(ctx, ki)
}

func (s *CommonStruct) WalletDefault(ctx context.Context) (address.Address, error) {
	return s.Internal.WalletDefault(ctx)
}

func (s *CommonStruct) StateGetRoot(ctx context.Context) (types.MsgID, error) {
	return s.Internal.StateGetRoot(ctx)
}

func (s *CommonStruct) StateGetHeight(ctx context.Context) (uint64, error) {
	return s.Internal.StateGetHeight(ctx)
}

func (s *CommonStruct) StateGetNonce(ctx context.Context, addr address.Address) (uint64, error) {
	return s.Internal.StateGetNonce(ctx, addr)
}

func (s *CommonStruct) StateGetWalletInfo(ctx context.Context) (*types.WalletInfo, error) {
	return s.Internal.StateGetWalletInfo(ctx)
}

func (s *CommonStruct) StateGetTransaction(ctx context.Context, id uint64) (*types.PendingTx, error) {
	return s.Internal.StateGetTransaction(ctx, id)
}

func (s *CommonStruct) StateGetBalances(ctx context.Context) ([]*types.BalanceInfo, error) {
	return s.Internal.StateGetBalances(ctx)
}

func (s *CommonStruct) StateGetMsg(ctx context.Context, mid types.MsgID) (*tx.SignedMessage, error) {
	return s.Internal.StateGetMsg(ctx, mid)
}

func (s *CommonStruct) StateGetReceipt(ctx context.Context, mid types.MsgID) (*tx.Receipt, error) {
	return s.Internal.StateGetReceipt(ctx, mid)
}

func (s *CommonStruct) StateGetMsgAt(ctx context.Context, ht uint64) (types.MsgID, error) {
	return s.Internal.StateGetMsgAt(ctx, ht)
}

func (s *CommonStruct) StatePushMessage(ctx context.Context, sm *tx.SignedMessage) (*tx.Receipt, error) {
	return s.Internal.StatePushMessage(ctx, sm)
}

func (s *FullNodeStruct) MsigGetOwner(ctx context.Context) (address.Address, error) {
	return s.Internal.MsigGetOwner(ctx)
}

func (s *FullNodeStruct) MsigGetAdmin(ctx context.Context) (address.Address, error) {
	return s.Internal.MsigGetAdmin(ctx)
}

func (s *FullNodeStruct) MsigSetAdmin(ctx context.Context, from, admin address.Address) error {
	return s.Internal.MsigSetAdmin(ctx, from, admin)
}

func (s *FullNodeStruct) MsigGetPending(ctx context.Context) ([]uint64, error) {
	return s.Internal.MsigGetPending(ctx)
}

func (s *FullNodeStruct) MsigCheckPermitting(ctx context.Context, who address.Address, id uint64) (bool, error) {
	return s.Internal.MsigCheckPermitting(ctx, who, id)
}

func (s *FullNodeStruct) MsigPropose(ctx context.Context, from address.Address, kind types.TxKind, p types.Payload) (uint64, error) {
	return s.Internal.MsigPropose(ctx, from, kind, p)
}

func (s *FullNodeStruct) MsigSign(ctx context.Context, from address.Address, id uint64) (types.TxStatus, error) {
	return s.Internal.MsigSign(ctx, from, id)
}

func (s *FullNodeStruct) MsigDelete(ctx context.Context, from address.Address, id uint64) error {
	return s.Internal.MsigDelete(ctx, from, id)
}

func (s *FullNodeStruct) MsigBalance(ctx context.Context, cur types.Currency) (*types.BalanceInfo, error) {
	return s.Internal.MsigBalance(ctx, cur)
}

func (s *FullNodeStruct) MsigDeposit(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) error {
	return s.Internal.MsigDeposit(ctx, from, cur, amount)
}

func (s *FullNodeStruct) MsigWithdraw(ctx context.Context, from address.Address, cur types.Currency, amount *big.Int) (*big.Int, error) {
	return s.Internal.MsigWithdraw(ctx, from, cur, amount)
}

// GetInternalStructs returns the proxy structs a merge client fills.
func GetInternalStructs(in *FullNodeStruct) []interface{} {
	return []interface{}{&in.CommonStruct.Internal, &in.Internal}
}
