package cmd

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
	"github.com/modood/table"
	"github.com/urfave/cli/v2"

	"github.com/memoio/go-betawallet/lib/types"
)

type balanceRow struct {
	Currency string
	Balance  string
}

type txRow struct {
	ID          uint64
	Kind        string
	Beneficiary string
	Amount      string
	Signed      string
}

var InfoCmd = &cli.Command{
	Name:  "info",
	Usage: "print information of the wallet",
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := cctx.Context

		v, err := napi.Version(ctx)
		if err != nil {
			return err
		}

		wi, err := napi.StateGetWalletInfo(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ansi.Color("----------- Information -----------", "green"))
		fmt.Println("Version: ", v)
		fmt.Println("Owner:   ", wi.Owner)
		fmt.Println("Admin:   ", wi.Admin)
		fmt.Printf("Quorum:   %d of %d\n", wi.Threshold, len(wi.Signers))
		for _, s := range wi.Signers {
			fmt.Println("  ", s)
		}
		fmt.Println("Root:    ", wi.Root)

		bals, err := napi.StateGetBalances(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ansi.Color("----------- Balances -----------", "green"))
		brows := make([]balanceRow, 0, len(bals))
		for _, bi := range bals {
			brows = append(brows, balanceRow{Currency: bi.Currency.String(), Balance: bi.Display})
		}
		table.Output(brows)

		ids, err := napi.MsigGetPending(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ansi.Color("----------- Pending -----------", "green"))
		trows := make([]txRow, 0, len(ids))
		for _, id := range ids {
			pt, err := napi.StateGetTransaction(ctx, id)
			if err != nil {
				return err
			}
			signed := make([]string, 0, len(pt.Signatures))
			for _, s := range pt.Signatures {
				signed = append(signed, s.String()[:10])
			}
			trows = append(trows, txRow{
				ID:          pt.ID,
				Kind:        pt.Kind.String(),
				Beneficiary: pt.Payload.Beneficiary.String(),
				Amount:      types.ToDisplay(pt.Payload.Amount) + " " + pt.Payload.Currency.String(),
				Signed:      fmt.Sprintf("%d/%d %s", len(pt.Signatures), wi.Threshold, strings.Join(signed, ",")),
			})
		}
		table.Output(trows)

		return nil
	},
}
