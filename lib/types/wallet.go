package types

import (
	"github.com/memoio/go-betawallet/lib/address"
)

type Wallet interface {
	WalletNew(KeyType) (address.Address, error)
	WalletSign(addr address.Address, msg []byte) ([]byte, error)
	WalletList() ([]address.Address, error)
	WalletHas(address.Address) bool
	WalletDelete(address.Address) error
	WalletExport(addr address.Address, pw string) (*KeyInfo, error)
	WalletImport(ki *KeyInfo) (address.Address, error)
}
