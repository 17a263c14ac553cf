package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mgutz/ansi"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

var WalletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "Interact with wallet",
	Subcommands: []*cli.Command{
		walletNewCmd,
		walletListCmd,
		walletDefaultCmd,
		walletImportCmd,
		walletExportCmd,
	},
}

var walletListCmd = &cli.Command{
	Name:  "list",
	Usage: "list all addrs",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		addrs, err := napi.WalletList(cctx.Context)
		if err != nil {
			return err
		}

		def, _ := napi.WalletDefault(cctx.Context)

		for _, as := range addrs {
			if as == def {
				fmt.Println(ansi.Color(as.String(), "green"), "(default)")
				continue
			}
			fmt.Println(as)
		}
		return nil
	},
}

var walletNewCmd = &cli.Command{
	Name:  "new",
	Usage: "create a new wallet address",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		waddr, err := napi.WalletNew(cctx.Context, types.Secp256k1)
		if err != nil {
			return err
		}
		fmt.Println(waddr)

		return nil
	},
}

var walletDefaultCmd = &cli.Command{
	Name:  "default",
	Usage: "show the default address",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		waddr, err := napi.WalletDefault(cctx.Context)
		if err != nil {
			return err
		}
		fmt.Println(waddr)

		return nil
	},
}

var walletImportCmd = &cli.Command{
	Name:      "import",
	Usage:     "import a secp256k1 secret key",
	ArgsUsage: "<hex secret key>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.New("need one secret key")
		}

		sk, err := hexutil.Decode(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		waddr, err := napi.WalletImport(cctx.Context, &types.KeyInfo{
			Type:      types.Secp256k1,
			SecretKey: sk,
		})
		if err != nil {
			return err
		}
		fmt.Println(waddr)

		return nil
	},
}

var walletExportCmd = &cli.Command{
	Name:      "export",
	Usage:     "print the secret key of an address",
	ArgsUsage: "<address>",
	Flags: []cli.Flag{
		passwordFlag,
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return xerrors.New("need one address")
		}

		waddr, err := address.NewFromString(cctx.Args().First())
		if err != nil {
			return err
		}

		pw, err := password(cctx)
		if err != nil {
			return err
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ki, err := napi.WalletExport(cctx.Context, waddr, pw)
		if err != nil {
			return err
		}
		fmt.Println(hexutil.Encode(ki.SecretKey))

		return nil
	},
}
