package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "botflow",
		Usage:                 "Edit, convert and inspect bot workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewServeCommand(),
			NewConvertCommand(),
			NewNormalizeCommand(),
			NewAncestorsCommand(),
			NewActionsCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
