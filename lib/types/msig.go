package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
)

// Currency 0 is the native coin, others are token type ids.
type Currency uint32

const NativeCurrency Currency = 0

func (c Currency) IsNative() bool {
	return c == NativeCurrency
}

func (c Currency) String() string {
	if c.IsNative() {
		return "native"
	}
	return "token-" + strconv.FormatUint(uint64(c), 10)
}

func ParseCurrency(s string) (Currency, error) {
	switch s {
	case "", "native", "eth", "0":
		return NativeCurrency, nil
	}

	s = strings.TrimPrefix(s, "token-")
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, xerrors.Errorf("currency %q: %w", s, ErrInvalidParams)
	}
	return Currency(v), nil
}

type TxKind uint8

const (
	TxTransfer TxKind = iota
	TxTokenTransfer
	TxWithdrawal
)

func (k TxKind) String() string {
	switch k {
	case TxTransfer:
		return "transfer"
	case TxTokenTransfer:
		return "tokenTransfer"
	case TxWithdrawal:
		return "withdrawal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseTxKind(s string) (TxKind, error) {
	switch strings.ToLower(s) {
	case "transfer":
		return TxTransfer, nil
	case "tokentransfer", "token":
		return TxTokenTransfer, nil
	case "withdrawal", "withdraw":
		return TxWithdrawal, nil
	default:
		return 0, xerrors.Errorf("tx kind %q: %w", s, ErrInvalidParams)
	}
}

// KindOf mirrors transferToToken: type 0 moves the native coin.
func KindOf(c Currency) TxKind {
	if c.IsNative() {
		return TxTransfer
	}
	return TxTokenTransfer
}

type TxStatus uint8

const (
	TxPending TxStatus = iota
	TxExecuted
	TxDeleted
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxExecuted:
		return "executed"
	case TxDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

type Payload struct {
	Beneficiary address.Address
	Amount      *big.Int
	Currency    Currency
}

func (p Payload) Validate(kind TxKind) error {
	if p.Beneficiary.Empty() {
		return xerrors.Errorf("empty beneficiary: %w", ErrInvalidParams)
	}

	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return xerrors.Errorf("amount must be positive: %w", ErrInvalidParams)
	}

	switch kind {
	case TxTransfer:
		if !p.Currency.IsNative() {
			return xerrors.Errorf("transfer of %s: %w", p.Currency, ErrInvalidParams)
		}
	case TxTokenTransfer:
		if p.Currency.IsNative() {
			return xerrors.Errorf("token transfer needs a token currency: %w", ErrInvalidParams)
		}
	case TxWithdrawal:
	default:
		return xerrors.Errorf("unknown %s: %w", kind, ErrInvalidParams)
	}

	return nil
}

// PendingTx is a proposed transaction and its approvals.
type PendingTx struct {
	ID         uint64
	Proposer   address.Address
	Kind       TxKind
	Payload    Payload
	Signatures []address.Address // in signer order
	Status     TxStatus
	CreatedAt  int64
	UpdatedAt  int64
}

// WalletGenesis is the immutable part of the wallet plus its initial admin.
type WalletGenesis struct {
	Owner     address.Address
	Admin     address.Address
	Signers   []address.Address
	Threshold uint32
}

func (g *WalletGenesis) Validate() error {
	if g.Owner.Empty() {
		return xerrors.Errorf("empty owner: %w", ErrInvalidParams)
	}

	if len(g.Signers) == 0 {
		return xerrors.Errorf("no signers: %w", ErrInvalidParams)
	}

	seen := make(map[address.Address]struct{}, len(g.Signers))
	for _, s := range g.Signers {
		if s.Empty() {
			return xerrors.Errorf("empty signer: %w", ErrInvalidParams)
		}
		if _, ok := seen[s]; ok {
			return xerrors.Errorf("duplicate signer %s: %w", s, ErrInvalidParams)
		}
		seen[s] = struct{}{}
	}

	if g.Threshold == 0 || int(g.Threshold) > len(g.Signers) {
		return xerrors.Errorf("threshold %d out of [1, %d]: %w", g.Threshold, len(g.Signers), ErrInvalidParams)
	}

	return nil
}

type WalletInfo struct {
	Owner     address.Address
	Admin     address.Address
	Signers   []address.Address
	Threshold uint32
	Pending   int
	Root      MsgID
}

type BalanceInfo struct {
	Currency Currency
	Value    *big.Int
	Display  string
}

func NewBalanceInfo(c Currency, v *big.Int) *BalanceInfo {
	if v == nil {
		v = new(big.Int)
	}
	return &BalanceInfo{
		Currency: c,
		Value:    v,
		Display:  ToDisplay(v),
	}
}
