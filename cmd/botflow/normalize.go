package main

import (
	"context"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func NewNormalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Rewrite a stored or legacy workflow document in the canonical shape",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			formatFlag(),
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			raw, err := readInput(command)
			if err != nil {
				return err
			}

			log.Setup(command.String("log-level"))

			workflow, err := document.NewNormalizer(log.WithModule("document")).Normalize(raw)
			if err != nil {
				return err
			}

			return writeOutput(command, workflow)
		},
	}
}
