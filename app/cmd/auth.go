package cmd

import (
	"fmt"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/api"
)

var AuthCmd = &cli.Command{
	Name:  "auth",
	Usage: "Manage rpc permissions",
	Subcommands: []*cli.Command{
		authCreateTokenCmd,
	},
}

var authCreateTokenCmd = &cli.Command{
	Name:  "create-token",
	Usage: "Create token with the given permission and the ones below it",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "perm",
			Usage: "permission to assign to the token, one of: read, write, sign, admin",
			Value: string(api.PermRead),
		},
	},
	Action: func(cctx *cli.Context) error {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		perm := cctx.String("perm")
		idx := -1
		for i, p := range api.AllPermissions {
			if auth.Permission(perm) == p {
				idx = i + 1
			}
		}
		if idx == -1 {
			return xerrors.Errorf("--perm flag has to be one of: %s", api.AllPermissions)
		}

		token, err := napi.AuthNew(cctx.Context, api.AllPermissions[:idx])
		if err != nil {
			return err
		}

		fmt.Println(string(token))
		return nil
	},
}
