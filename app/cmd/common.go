package cmd

import (
	"fmt"
	"os"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/howeyc/gopass"
	"github.com/urfave/cli/v2"

	"github.com/memoio/go-betawallet/api"
	"github.com/memoio/go-betawallet/api/client"
	"github.com/memoio/go-betawallet/lib/address"
	logging "github.com/memoio/go-betawallet/lib/log"
)

var logger = logging.Logger("main")

const (
	FlagNodeRepo = "repo"

	pwKwd   = "password"
	fromKwd = "from"
)

var CommonCmd []*cli.Command

func init() {
	CommonCmd = []*cli.Command{
		InitCmd,
		DaemonCmd,
		AuthCmd,
		WalletCmd,
		ConfigCmd,
		MsigCmd,
		ChainCmd,
		StateCmd,
		InfoCmd,
	}
}

// getFullNode connects to the daemon serving the repo.
func getFullNode(cctx *cli.Context) (api.FullNode, jsonrpc.ClientCloser, error) {
	addr, headers, err := client.GetClientInfo(cctx.String(FlagNodeRepo))
	if err != nil {
		return nil, nil, err
	}

	return client.NewFullNodeClient(cctx.Context, addr, headers)
}

// password of the flag, or read from the terminal.
func password(cctx *cli.Context) (string, error) {
	if pw := cctx.String(pwKwd); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	pw, err := gopass.GetPasswdMasked()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

var passwordFlag = &cli.StringFlag{
	Name:    pwKwd,
	Usage:   "password for wallet keys, prompted when empty",
	EnvVars: []string{"BWALLET_PASSWORD"},
}

var fromFlag = &cli.StringFlag{
	Name:  fromKwd,
	Usage: "sender address, the default wallet address when empty",
}

func fromAddr(cctx *cli.Context) (address.Address, error) {
	s := cctx.String(fromKwd)
	if s == "" {
		return address.Undef, nil
	}
	return address.NewFromString(s)
}
