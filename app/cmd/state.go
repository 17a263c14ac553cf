package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

var StateCmd = &cli.Command{
	Name:  "state",
	Usage: "Interact with state manager",
	Subcommands: []*cli.Command{
		stateRootCmd,
		stateNonceCmd,
		stateTxCmd,
		stateMsgCmd,
		stateReceiptCmd,
	},
}

var stateRootCmd = &cli.Command{
	Name:  "root",
	Usage: "print state root and height",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		root, err := napi.StateGetRoot(cctx.Context)
		if err != nil {
			return err
		}
		ht, err := napi.StateGetHeight(cctx.Context)
		if err != nil {
			return err
		}

		fmt.Printf("height: %d, root: %s\n", ht, root)
		return nil
	},
}

var stateNonceCmd = &cli.Command{
	Name:      "nonce",
	Usage:     "print the next message nonce of an address",
	ArgsUsage: "<address>",
	Action: func(cctx *cli.Context) error {
		addr, err := address.NewFromString(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		nonce, err := napi.StateGetNonce(cctx.Context, addr)
		if err != nil {
			return err
		}

		fmt.Println(nonce)
		return nil
	},
}

var stateTxCmd = &cli.Command{
	Name:      "tx",
	Usage:     "show a pending transaction",
	ArgsUsage: "<id>",
	Action: func(cctx *cli.Context) error {
		id, err := parseID(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		pt, err := napi.StateGetTransaction(cctx.Context, id)
		if err != nil {
			return err
		}

		return printJSON(pt)
	},
}

var stateMsgCmd = &cli.Command{
	Name:      "msg",
	Usage:     "show the message applied at a height",
	ArgsUsage: "<height>",
	Action: func(cctx *cli.Context) error {
		ht, err := strconv.ParseUint(cctx.Args().First(), 10, 64)
		if err != nil {
			return xerrors.Errorf("height: %w", types.ErrInvalidParams)
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		mid, err := napi.StateGetMsgAt(cctx.Context, ht)
		if err != nil {
			return err
		}

		sm, err := napi.StateGetMsg(cctx.Context, mid)
		if err != nil {
			return err
		}

		return printJSON(sm)
	},
}

var stateReceiptCmd = &cli.Command{
	Name:      "receipt",
	Usage:     "show the receipt of a message",
	ArgsUsage: "<message id>",
	Action: func(cctx *cli.Context) error {
		mid, err := types.FromHexString(cctx.Args().First())
		if err != nil {
			return err
		}

		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		r, err := napi.StateGetReceipt(cctx.Context, mid)
		if err != nil {
			return err
		}

		return printJSON(r)
	},
}
