package cmd

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/submodule/connect/contract"
	"github.com/memoio/go-betawallet/submodule/wallet"
)

var chainFlags = []cli.Flag{
	passwordFlag,
	&cli.StringFlag{
		Name:  "endpoint",
		Usage: "chain rpc endpoint, chain.endPoint of the config when empty",
	},
	&cli.StringFlag{
		Name:  "contract",
		Usage: "wallet contract address, chain.contract of the config when empty",
	},
	&cli.Int64Flag{
		Name:  "chain-id",
		Usage: "chain id, asked from the endpoint when 0",
	},
}

var ChainCmd = &cli.Command{
	Name:        "chain",
	Usage:       "Interact with the wallet contract directly, without a daemon",
	Subcommands: msigCommands(chainMsig, chainFlags),
}

// chainMsig binds the contract with the --from key, or the default one.
func chainMsig(cctx *cli.Context) (api.IMultiSig, func(), error) {
	rep, err := repo.NewFSRepo(cctx.String(FlagNodeRepo), nil)
	if err != nil {
		return nil, nil, err
	}

	cm, err := openContract(cctx, rep)
	if err != nil {
		rep.Close()
		return nil, nil, err
	}

	return cm, func() {
		cm.Close()
		rep.Close()
	}, nil
}

func openContract(cctx *cli.Context, rep repo.Repo) (*contract.ContractMgr, error) {
	cfg := rep.Config()
	opts := contract.Options{
		EndPoint: cfg.Chain.EndPoint,
		Contract: cfg.Chain.Contract,
		ABIPath:  cfg.Chain.ABIPath,
		ChainID:  cfg.Chain.ChainID,
	}
	if s := cctx.String("endpoint"); s != "" {
		opts.EndPoint = s
	}
	if s := cctx.String("contract"); s != "" {
		opts.Contract = s
	}
	if cctx.IsSet("chain-id") {
		opts.ChainID = cctx.Int64("chain-id")
	}

	sender := cctx.String(fromKwd)
	if sender == "" {
		sender = cfg.Wallet.DefaultAddress
	}
	if sender == "" {
		return nil, xerrors.New("no sender: set --from or wallet.defaultAddress")
	}
	addr, err := address.NewFromString(sender)
	if err != nil {
		return nil, err
	}

	pw, err := password(cctx)
	if err != nil {
		return nil, err
	}

	ki, err := wallet.New(pw, rep.KeyStore()).WalletExport(addr, pw)
	if err != nil {
		return nil, err
	}

	return contract.NewContractMgr(cctx.Context, opts, ki)
}
