package contract

import (
	_ "embed"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"golang.org/x/xerrors"

	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/crypto/signature"
	"github.com/memoio/go-betawallet/lib/types"
)

var logger = logging.Logger("contract")

const (
	callRetryCount = 3
	callRetryWait  = time.Second
)

const (
	methodOwner       = "owner"
	methodAdmin       = "admin"
	methodPending     = "getPendingTransactions"
	methodBalance     = "walletBalance"
	methodTokenBal    = "walletBalanceOfToken"
	methodPermitting  = "check_permitting"
	methodTransfer    = "transferToToken"
	methodSign        = "signTransaction"
	methodDelete      = "deletePendingTransaction"
	methodSetAdmin    = "setNewAdmin"
	methodWithdrawEth = "withdraw_ether"
	methodWithdrawTok = "withdraw_token"
	methodDeposit     = "deposit"
)

//go:embed betawallet.abi.json
var defaultABI string

// LoadABI parses the abi at path, or the built-in one when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	src := defaultABI
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, xerrors.Errorf("read abi %s: %w", path, err)
		}
		src = string(b)
	}

	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		return abi.ABI{}, xerrors.Errorf("parse abi: %w", err)
	}

	for _, m := range []string{methodOwner, methodAdmin, methodPending, methodBalance, methodTokenBal, methodPermitting,
		methodTransfer, methodSign, methodDelete, methodSetAdmin, methodWithdrawEth, methodWithdrawTok} {
		if _, ok := parsed.Methods[m]; !ok {
			return abi.ABI{}, xerrors.Errorf("abi has no method %s", m)
		}
	}

	return parsed, nil
}

func MakeAuth(chainID *big.Int, ki *types.KeyInfo) (*bind.TransactOpts, error) {
	sk, err := signature.ParsePrivateKey(ki.SecretKey, ki.Type)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(sk, chainID)
	if err != nil {
		return nil, xerrors.Errorf("new keyed transaction failed %s", err)
	}

	auth.Value = big.NewInt(0)
	return auth, nil
}
