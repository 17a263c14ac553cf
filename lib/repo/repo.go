package repo

import (
	"github.com/memoio/go-betawallet/config"
	"github.com/memoio/go-betawallet/lib/types"
	"github.com/memoio/go-betawallet/lib/types/store"
)

// Repo is a representation of all persistent data in a wallet node.
type Repo interface {
	Config() *config.Config

	// ReplaceConfig replaces the current config, with the newly passed in one.
	ReplaceConfig(cfg *config.Config) error

	MetaStore() store.KVStore

	KeyStore() types.KeyStore

	// SetAPIAddr sets the address of the running jsonrpc API.
	SetAPIAddr(maddr string) error

	// APIAddr returns the address of the running API.
	APIAddr() (string, error)

	// SetAPIToken set api token
	SetAPIToken(token []byte) error

	// APIToken returns the token written by the running node.
	APIToken() ([]byte, error)

	// Path returns the repo path.
	Path() (string, error)

	// Close shuts down the repo.
	Close() error
}
