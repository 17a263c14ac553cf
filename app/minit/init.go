package minit

import (
	"context"

	"golang.org/x/xerrors"

	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

var logger = logging.Logger("minit")

// Create makes the default wallet key of a fresh repo and, when the
// multisig section names no owner, makes that key the owner.
func Create(ctx context.Context, r repo.Repo, password string) error {
	cfg := r.Config()
	if cfg.Wallet.DefaultAddress != "" {
		return nil
	}

	if password == "" {
		return xerrors.Errorf("empty wallet password: %w", types.ErrInvalidParams)
	}

	w := wallet.New(password, r.KeyStore())

	logger.Info("generating wallet key...")

	addr, err := w.WalletNew(types.Secp256k1)
	if err != nil {
		return err
	}

	logger.Infow("generated wallet", "address", addr)

	cfg.Wallet.DefaultAddress = addr.String()
	if cfg.Multisig.Owner == "" {
		cfg.Multisig.Owner = addr.String()
	}

	return r.ReplaceConfig(cfg)
}
