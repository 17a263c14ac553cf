package wallet

import (
	"context"
	"sync"

	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/crypto/signature"
	logging "github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/types"
)

var logger = logging.Logger("wallet")

var _ types.Wallet = (*LocalWallet)(nil)

// LocalWallet signs with keys kept encrypted in a KeyStore;
// unlocked keys are cached for the life of the process.
type LocalWallet struct {
	lw       sync.Mutex
	password string
	keystore types.KeyStore
	accounts map[address.Address]*types.KeyInfo
}

func New(pw string, ks types.KeyStore) *LocalWallet {
	return &LocalWallet{
		password: pw,
		keystore: ks,
		accounts: make(map[address.Address]*types.KeyInfo),
	}
}

func (w *LocalWallet) find(addr address.Address) (*types.KeyInfo, error) {
	w.lw.Lock()
	defer w.lw.Unlock()

	ki, ok := w.accounts[addr]
	if ok {
		return ki, nil
	}

	nki, err := w.keystore.Get(addr.String(), w.password)
	if err != nil {
		return nil, err
	}

	w.accounts[addr] = &nki
	return &nki, nil
}

func (w *LocalWallet) WalletNew(kt types.KeyType) (address.Address, error) {
	if kt != types.Secp256k1 {
		return address.Undef, signature.ErrBadKeyType
	}

	ki, err := signature.GenerateKey()
	if err != nil {
		return address.Undef, err
	}

	return w.WalletImport(ki)
}

func (w *LocalWallet) WalletSign(addr address.Address, msg []byte) ([]byte, error) {
	ki, err := w.find(addr)
	if err != nil {
		return nil, xerrors.Errorf("no key for %s: %w", addr, err)
	}

	return signature.Sign(ki, msg)
}

func (w *LocalWallet) WalletList() ([]address.Address, error) {
	names, err := w.keystore.List()
	if err != nil {
		return nil, err
	}

	out := make([]address.Address, 0, len(names))
	for _, name := range names {
		addr, err := address.NewFromString(name)
		if err != nil {
			logger.Debugf("skip key file %s: %s", name, err)
			continue
		}
		out = append(out, addr)
	}

	return out, nil
}

func (w *LocalWallet) WalletHas(addr address.Address) bool {
	_, err := w.find(addr)
	return err == nil
}

func (w *LocalWallet) WalletDelete(addr address.Address) error {
	w.lw.Lock()
	defer w.lw.Unlock()

	err := w.keystore.Delete(addr.String(), w.password)
	if err != nil {
		return err
	}

	delete(w.accounts, addr)
	return nil
}

// WalletExport returns the plain key; pw must match the wallet password.
func (w *LocalWallet) WalletExport(addr address.Address, pw string) (*types.KeyInfo, error) {
	if pw != w.password {
		return nil, xerrors.Errorf("export %s: %w", addr, types.ErrUnauthorized)
	}

	ki, err := w.find(addr)
	if err != nil {
		return nil, err
	}

	out := *ki
	return &out, nil
}

func (w *LocalWallet) WalletImport(ki *types.KeyInfo) (address.Address, error) {
	addr, err := signature.GetAdressFromKey(ki)
	if err != nil {
		return address.Undef, err
	}

	w.lw.Lock()
	defer w.lw.Unlock()

	err = w.keystore.Put(addr.String(), w.password, *ki)
	if err != nil {
		return address.Undef, err
	}

	nki := *ki
	w.accounts[addr] = &nki

	logger.Infow("wallet key stored", "address", addr)

	return addr, nil
}

// API wraps the wallet for the rpc server.
func (w *LocalWallet) API() *WalletAPI {
	return &WalletAPI{w}
}

type WalletAPI struct {
	*LocalWallet
}

func (wa *WalletAPI) WalletNew(ctx context.Context, kt types.KeyType) (address.Address, error) {
	return wa.LocalWallet.WalletNew(kt)
}

func (wa *WalletAPI) WalletSign(ctx context.Context, addr address.Address, msg []byte) ([]byte, error) {
	return wa.LocalWallet.WalletSign(addr, msg)
}

func (wa *WalletAPI) WalletList(ctx context.Context) ([]address.Address, error) {
	return wa.LocalWallet.WalletList()
}

func (wa *WalletAPI) WalletHas(ctx context.Context, addr address.Address) (bool, error) {
	return wa.LocalWallet.WalletHas(addr), nil
}

func (wa *WalletAPI) WalletDelete(ctx context.Context, addr address.Address) error {
	return wa.LocalWallet.WalletDelete(addr)
}

func (wa *WalletAPI) WalletExport(ctx context.Context, addr address.Address, pw string) (*types.KeyInfo, error) {
	return wa.LocalWallet.WalletExport(addr, pw)
}

func (wa *WalletAPI) WalletImport(ctx context.Context, ki *types.KeyInfo) (address.Address, error) {
	return wa.LocalWallet.WalletImport(ki)
}
