package cmd

import (
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/app/minit"
	"github.com/memoio/go-betawallet/lib/log"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/utils/paths"
	basenode "github.com/memoio/go-betawallet/submodule/node"
)

const apiAddrKwd = "api"

var DaemonCmd = &cli.Command{
	Name:  "daemon",
	Usage: "Run a betawallet node.",
	Subcommands: []*cli.Command{
		{
			Name:  "start",
			Usage: "start the wallet node in the foreground",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{
					Name:  apiAddrKwd,
					Usage: "listen multiaddr for the api, saved into config",
				},
			},
			Action: daemonStart,
		},
		{
			Name:  "stop",
			Usage: "ask a running node to shut down",
			Action: func(cctx *cli.Context) error {
				napi, closer, err := getFullNode(cctx)
				if err != nil {
					return err
				}
				defer closer()

				return napi.Shutdown(cctx.Context)
			},
		},
	},
}

func daemonStart(cctx *cli.Context) error {
	minit.PrintVersion()

	repoDir, err := paths.GetRepoPath(cctx.String(FlagNodeRepo))
	if err != nil {
		return err
	}

	stopProfile, err := minit.ProfileIfEnabled(repoDir)
	if err != nil {
		return err
	}
	defer stopProfile()

	pw, err := password(cctx)
	if err != nil {
		return err
	}

	rep, err := repo.NewFSRepo(repoDir, nil)
	if err != nil {
		return err
	}

	node, err := openNode(cctx, rep, pw)
	if err != nil {
		rep.Close()
		return err
	}

	if err := node.Start(); err != nil {
		node.Stop(cctx.Context)
		return xerrors.Errorf("start node: %w", err)
	}

	return node.RunDaemon()
}

// openNode applies daemon flags to the repo config and builds the node;
// on error the caller still owns rep.
func openNode(cctx *cli.Context, rep *repo.FSRepo, pw string) (*basenode.BaseNode, error) {
	cfg := rep.Config()
	if addr := cctx.String(apiAddrKwd); addr != "" {
		cfg.API.APIAddress = addr
		if err := rep.ReplaceConfig(cfg); err != nil {
			return nil, err
		}
	}

	log.SetLevel(cfg.Log.Level)
	log.SetOutputFile(cfg.Log.File, cfg.Log.MaxSizeMB)

	logger.Infof("starting %s node from %s", cfg.Chain.Mode, cctx.String(FlagNodeRepo))

	opts, err := basenode.OptionsFromRepo(rep)
	if err != nil {
		return nil, err
	}

	return basenode.New(cctx.Context, append(opts, basenode.SetWalletPassword(pw))...)
}
