package cmd

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/mgutz/ansi"
	"github.com/modood/table"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/lib/address"
	"github.com/memoio/go-betawallet/lib/types"
)

// msigGetter opens the multisig api a command runs against.
type msigGetter func(cctx *cli.Context) (api.IMultiSig, func(), error)

var MsigCmd = &cli.Command{
	Name:        "msig",
	Usage:       "Interact with the multisig wallet through the daemon",
	Subcommands: append(msigCommands(daemonMsig, nil), msigSignersCmd, msigShowCmd),
}

var msigSignersCmd = &cli.Command{
	Name:  "signers",
	Usage: "list the signers and the threshold",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		wi, err := napi.StateGetWalletInfo(cctx.Context)
		if err != nil {
			return err
		}

		fmt.Printf("threshold: %d of %d\n", wi.Threshold, len(wi.Signers))
		for _, s := range wi.Signers {
			fmt.Println(s)
		}
		return nil
	},
}

var msigShowCmd = &cli.Command{
	Name:      "show",
	Usage:     "show a transaction and its signatures",
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

		fmt.Println("ID:         ", pt.ID)
		fmt.Println("Status:     ", pt.Status)
		fmt.Println("Kind:       ", pt.Kind)
		fmt.Println("Proposer:   ", pt.Proposer)
		fmt.Println("Beneficiary:", pt.Payload.Beneficiary)
		fmt.Println("Amount:     ", types.ToDisplay(pt.Payload.Amount), pt.Payload.Currency)
		fmt.Println("Signatures: ")
		for _, s := range pt.Signatures {
			fmt.Println("  ", ansi.Color(s.String(), "green"))
		}
		return nil
	},
}

func daemonMsig(cctx *cli.Context) (api.IMultiSig, func(), error) {
	napi, closer, err := getFullNode(cctx)
	if err != nil {
		return nil, nil, err
	}
	return napi, func() { closer() }, nil
}

var currencyFlag = &cli.StringFlag{
	Name:  "currency",
	Usage: "native or token-<type>",
	Value: "native",
}

var amountFlag = &cli.StringFlag{
	Name:  "amount",
	Usage: "amount in display units, e.g. 1.5",
}

type pendingRow struct {
	ID string
}

// msigCommands builds the multisig command set; extra flags go on every command.
func msigCommands(get msigGetter, extra []cli.Flag) []*cli.Command {
	with := func(fn func(cctx *cli.Context, ms api.IMultiSig) error) cli.ActionFunc {
		return func(cctx *cli.Context) error {
			ms, closer, err := get(cctx)
			if err != nil {
				return err
			}
			defer closer()
			return fn(cctx, ms)
		}
	}

	flags := func(fs ...cli.Flag) []cli.Flag {
		return append(fs, extra...)
	}

	return []*cli.Command{
		{
			Name:  "owner",
			Usage: "print the wallet owner",
			Flags: flags(),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				a, err := ms.MsigGetOwner(cctx.Context)
				if err != nil {
					return err
				}
				fmt.Println(a)
				return nil
			}),
		},
		{
			Name:  "admin",
			Usage: "print the wallet admin",
			Flags: flags(),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				a, err := ms.MsigGetAdmin(cctx.Context)
				if err != nil {
					return err
				}
				fmt.Println(a)
				return nil
			}),
		},
		{
			Name:      "set-admin",
			Usage:     "replace the admin, sent by the current admin",
			ArgsUsage: "<address>",
			Flags:     flags(fromFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				if cctx.NArg() != 1 {
					return xerrors.New("need the new admin address")
				}
				admin, err := address.NewFromString(cctx.Args().First())
				if err != nil {
					return err
				}
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				return ms.MsigSetAdmin(cctx.Context, from, admin)
			}),
		},
		{
			Name:  "pending",
			Usage: "list pending transaction ids",
			Flags: flags(),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				ids, err := ms.MsigGetPending(cctx.Context)
				if err != nil {
					return err
				}
				rows := make([]pendingRow, 0, len(ids))
				for _, id := range ids {
					rows = append(rows, pendingRow{ID: strconv.FormatUint(id, 10)})
				}
				table.Output(rows)
				return nil
			}),
		},
		{
			Name:      "check",
			Usage:     "check whether an address may still sign a pending transaction",
			ArgsUsage: "<id> <address>",
			Flags:     flags(),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				if cctx.NArg() != 2 {
					return xerrors.New("need id and address")
				}
				id, err := parseID(cctx.Args().Get(0))
				if err != nil {
					return err
				}
				who, err := address.NewFromString(cctx.Args().Get(1))
				if err != nil {
					return err
				}
				ok, err := ms.MsigCheckPermitting(cctx.Context, who, id)
				if err != nil {
					return err
				}
				fmt.Println(ok)
				return nil
			}),
		},
		{
			Name:  "propose",
			Usage: "propose a transfer out of the wallet",
			Flags: flags(fromFlag, currencyFlag, amountFlag,
				&cli.StringFlag{
					Name:     "to",
					Usage:    "beneficiary address",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "kind",
					Usage: "transfer, token or withdrawal; derived from currency when empty",
				},
			),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				to, err := address.NewFromString(cctx.String("to"))
				if err != nil {
					return err
				}
				cur, err := types.ParseCurrency(cctx.String("currency"))
				if err != nil {
					return err
				}
				amount, err := types.FromDisplay(cctx.String("amount"))
				if err != nil {
					return err
				}

				kind := types.KindOf(cur)
				if k := cctx.String("kind"); k != "" {
					kind, err = types.ParseTxKind(k)
					if err != nil {
						return err
					}
				}

				id, err := ms.MsigPropose(cctx.Context, from, kind, types.Payload{
					Beneficiary: to,
					Amount:      amount,
					Currency:    cur,
				})
				if err != nil {
					return err
				}
				fmt.Println("proposed:", id)
				return nil
			}),
		},
		{
			Name:      "sign",
			Usage:     "sign a pending transaction; the last needed signature executes it",
			ArgsUsage: "<id>",
			Flags:     flags(fromFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				id, err := parseID(cctx.Args().First())
				if err != nil {
					return err
				}
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				st, err := ms.MsigSign(cctx.Context, from, id)
				if err != nil {
					return err
				}
				color := "yellow"
				if st == types.TxExecuted {
					color = "green"
				}
				fmt.Println(id, ansi.Color(st.String(), color))
				return nil
			}),
		},
		{
			Name:      "delete",
			Usage:     "delete a pending transaction, admin or proposer only",
			ArgsUsage: "<id>",
			Flags:     flags(fromFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				id, err := parseID(cctx.Args().First())
				if err != nil {
					return err
				}
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				return ms.MsigDelete(cctx.Context, from, id)
			}),
		},
		{
			Name:  "balance",
			Usage: "print the wallet balance",
			Flags: flags(currencyFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				cur, err := types.ParseCurrency(cctx.String("currency"))
				if err != nil {
					return err
				}
				bi, err := ms.MsigBalance(cctx.Context, cur)
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s (%s)\n", bi.Currency, ansi.Color(bi.Display, "green"), bi.Value)
				return nil
			}),
		},
		{
			Name:  "deposit",
			Usage: "move funds into the wallet",
			Flags: flags(fromFlag, currencyFlag, amountFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				cur, err := types.ParseCurrency(cctx.String("currency"))
				if err != nil {
					return err
				}
				amount, err := types.FromDisplay(cctx.String("amount"))
				if err != nil {
					return err
				}
				return ms.MsigDeposit(cctx.Context, from, cur, amount)
			}),
		},
		{
			Name:  "withdraw",
			Usage: "withdraw to the admin, everything when no amount is given",
			Flags: flags(fromFlag, currencyFlag, amountFlag),
			Action: with(func(cctx *cli.Context, ms api.IMultiSig) error {
				from, err := fromAddr(cctx)
				if err != nil {
					return err
				}
				cur, err := types.ParseCurrency(cctx.String("currency"))
				if err != nil {
					return err
				}
				var amount *big.Int
				if cctx.IsSet("amount") {
					amount, err = types.FromDisplay(cctx.String("amount"))
					if err != nil {
						return err
					}
				}
				moved, err := ms.MsigWithdraw(cctx.Context, from, cur, amount)
				if err != nil {
					return err
				}
				fmt.Println("withdrawn:", types.ToDisplay(moved))
				return nil
			}),
		},
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("transaction id %q: %w", s, types.ErrInvalidParams)
	}
	return id, nil
}
