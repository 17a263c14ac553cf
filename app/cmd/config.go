package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/memoio/go-betawallet/api/client"
	"github.com/memoio/go-betawallet/lib/repo"
)

var ConfigCmd = &cli.Command{
	Name:  "config",
	Usage: "Interact with config",
	Subcommands: []*cli.Command{
		configSetCmd,
		configGetCmd,
	},
}

var configGetCmd = &cli.Command{
	Name:  "get",
	Usage: "Get config key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "key",
			Usage: "The key of the config entry (e.g. \"multisig.threshold\")",
			Value: "",
		},
	},
	Action: func(cctx *cli.Context) error {
		key := cctx.String("key")
		if key == "" {
			return errors.New("key is nil")
		}

		var res interface{}
		err := withConfig(cctx, func(get func(string) (interface{}, error), _ func(string, string) error) error {
			var err error
			res, err = get(key)
			return err
		})
		if err != nil {
			return err
		}

		return printJSON(res)
	},
}

var configSetCmd = &cli.Command{
	Name:  "set",
	Usage: "Set config key; the wallet genesis is read once, on first start",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "key",
			Usage: "The key of the config entry (e.g. \"multisig.threshold\")",
			Value: "",
		},
		&cli.StringFlag{
			Name:  "value",
			Usage: "The value with which to set the config entry",
			Value: "",
		},
	},
	Action: func(cctx *cli.Context) error {
		key := cctx.String("key")
		if key == "" {
			return errors.New("key is nil")
		}

		var res interface{}
		err := withConfig(cctx, func(get func(string) (interface{}, error), set func(string, string) error) error {
			err := set(key, cctx.String("value"))
			if err != nil {
				return err
			}
			res, err = get(key)
			return err
		})
		if err != nil {
			return err
		}

		return printJSON(res)
	},
}

// withConfig goes through the daemon when one runs on the repo, and
// edits the repo directly otherwise.
func withConfig(cctx *cli.Context, fn func(get func(string) (interface{}, error), set func(string, string) error) error) error {
	if _, _, err := client.GetClientInfo(cctx.String(FlagNodeRepo)); err == nil {
		napi, closer, err := getFullNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		return fn(
			func(k string) (interface{}, error) { return napi.ConfigGet(cctx.Context, k) },
			func(k, v string) error { return napi.ConfigSet(cctx.Context, k, v) },
		)
	}

	rep, err := repo.NewFSRepo(cctx.String(FlagNodeRepo), nil)
	if err != nil {
		return err
	}
	defer rep.Close()

	return fn(
		rep.Config().Get,
		func(k, v string) error {
			cfg := rep.Config()
			if err := cfg.Set(k, v); err != nil {
				return err
			}
			return rep.ReplaceConfig(cfg)
		},
	)
}

func printJSON(v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}

	fmt.Println(string(bs))
	return nil
}
