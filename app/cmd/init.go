package cmd

import (
	"encoding/json"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/memoio/go-betawallet/app/minit"
	"github.com/memoio/go-betawallet/config"
	"github.com/memoio/go-betawallet/lib/repo"
	"github.com/memoio/go-betawallet/lib/utils/paths"
)

var InitCmd = &cli.Command{
	Name:  "init",
	Usage: "Initialize a betawallet repo",
	Flags: []cli.Flag{
		passwordFlag,
		&cli.StringSliceFlag{
			Name:  "signer",
			Usage: "signer address of the multisig, repeatable",
		},
		&cli.UintFlag{
			Name:  "threshold",
			Usage: "signatures needed to execute a transaction",
		},
		&cli.StringFlag{
			Name:  "admin",
			Usage: "admin address, the owner when empty",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "local or chain",
			Value: config.ModeLocal,
		},
	},
	Action: func(cctx *cli.Context) error {
		logger.Info("Initializing betawallet")

		repoDir, err := paths.GetRepoPath(cctx.String(FlagNodeRepo))
		if err != nil {
			return err
		}

		exist, err := repo.Exists(repoDir)
		if err != nil {
			return err
		}
		if exist {
			return xerrors.Errorf("repo at '%s' is already initialized", repoDir)
		}

		pw, err := password(cctx)
		if err != nil {
			return err
		}

		logger.Infof("Initializing repo at '%s'", repoDir)

		cfg := config.NewDefaultConfig()
		settings := [][2]string{{"chain.mode", cctx.String("mode")}}
		if admin := cctx.String("admin"); admin != "" {
			settings = append(settings, [2]string{"multisig.admin", admin})
		}
		if signers := cctx.StringSlice("signer"); len(signers) > 0 {
			sb, err := json.Marshal(signers)
			if err != nil {
				return err
			}
			settings = append(settings, [2]string{"multisig.signers", string(sb)})
		}
		if cctx.IsSet("threshold") {
			settings = append(settings, [2]string{"multisig.threshold", strconv.FormatUint(uint64(cctx.Uint("threshold")), 10)})
		}
		for _, kv := range settings {
			if err := cfg.Set(kv[0], kv[1]); err != nil {
				return xerrors.Errorf("set %s: %w", kv[0], err)
			}
		}

		rep, err := repo.NewFSRepo(repoDir, cfg)
		if err != nil {
			return err
		}

		defer func() {
			_ = rep.Close()
		}()

		if err := minit.Create(cctx.Context, rep, pw); err != nil {
			logger.Errorf("Error initializing repo %s", err)
			return err
		}

		logger.Infow("repo initialized", "default", rep.Config().Wallet.DefaultAddress)

		return nil
	},
}
