package node

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/memoio/go-betawallet/config"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/types"
	wsvc "github.com/memoio/go-betawallet/service/wallet"
	"github.com/memoio/go-betawallet/submodule/auth"
	mconfig "github.com/memoio/go-betawallet/submodule/config"
	"github.com/memoio/go-betawallet/submodule/connect/contract"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

// Builder collects what a node needs before it is built.
type Builder struct {
	repo repo.Repo

	walletPassword string // en/decrypt wallet from keystore
}

// BuilderOpt is an option for building a node.
type BuilderOpt func(*Builder) error

// SetWalletPassword set wallet password
func SetWalletPassword(password string) BuilderOpt {
	return func(c *Builder) error {
		c.walletPassword = password
		return nil
	}
}

// OptionsFromRepo returns the options that make a node use r.
func OptionsFromRepo(r repo.Repo) ([]BuilderOpt, error) {
	if r == nil {
		return nil, errors.New("nil repo")
	}

	dsopt := func(c *Builder) error {
		c.repo = r
		return nil
	}

	return []BuilderOpt{dsopt}, nil
}

// New creates a new node.
func New(ctx context.Context, opts ...BuilderOpt) (*BaseNode, error) {
	builder := &Builder{}

	for _, o := range opts {
		if err := o(builder); err != nil {
			return nil, err
		}
	}

	return builder.build(ctx)
}

func (b *Builder) build(ctx context.Context) (*BaseNode, error) {
	if b.repo == nil {
		return nil, fmt.Errorf("no repo")
	}

	cctx, cancel := context.WithCancel(ctx)

	nd := &BaseNode{
		ctx:          cctx,
		cancel:       cancel,
		repo:         b.repo,
		ShutdownChan: make(chan struct{}, 1),
	}

	lw := wallet.New(b.walletPassword, b.repo.KeyStore())
	nd.WalletAPI = lw.API()
	nd.ConfigAPI = mconfig.NewConfigModule(b.repo).API()

	jauth, err := auth.NewJwtAuth(b.repo.MetaStore())
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to create auth")
	}
	nd.JwtAuth = jauth

	cfg := b.repo.Config()
	switch cfg.Chain.Mode {
	case config.ModeChain:
		def, err := nd.WalletDefault(cctx)
		if err != nil {
			cancel()
			return nil, err
		}

		ki, err := lw.WalletExport(def, b.walletPassword)
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "failed to unlock contract sender")
		}

		cm, err := contract.NewContractMgr(cctx, contract.Options{
			EndPoint: cfg.Chain.EndPoint,
			Contract: cfg.Chain.Contract,
			ABIPath:  cfg.Chain.ABIPath,
			ChainID:  cfg.Chain.ChainID,
		}, ki)
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "failed to connect contract")
		}

		nd.IMultiSig = cm
		nd.IState = chainState{}
		nd.closers = append(nd.closers, cm.Close)
	default:
		gen, err := genesisFromConfig(cfg)
		if err != nil {
			cancel()
			return nil, err
		}

		svc, err := wsvc.New(cctx, b.repo.MetaStore(), gen, lw, nd.WalletDefault)
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "failed to create wallet service")
		}

		nd.svc = svc
		nd.IMultiSig = svc
		nd.IState = svc.StateAPI()
	}

	logger.Infow("node built", "mode", cfg.Chain.Mode, "name", cfg.Identity.Name)

	return nd, nil
}

// genesisFromConfig is nil when no signer is configured; an existing
// state then loads without it.
func genesisFromConfig(cfg *config.Config) (*types.WalletGenesis, error) {
	if len(cfg.Multisig.Signers) == 0 {
		return nil, nil
	}
	return cfg.Multisig.Genesis()
}
