package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/memoio/go-betawallet/app/cmd"
	"github.com/memoio/go-betawallet/build"
)

func main() {
	app := &cli.App{
		Name:                 "bwallet",
		Usage:                "Multisig wallet node",
		Version:              build.UserVersion(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    cmd.FlagNodeRepo,
				EnvVars: []string{"BWALLET_PATH"},
				Value:   "~/.betawallet",
				Usage:   "Specify betawallet path.",
			},
		},

		Commands: cmd.CommonCmd,
	}

	app.Setup()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err) // nolint:errcheck
		os.Exit(1)
	}
}
