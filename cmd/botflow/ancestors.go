package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/log"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/dukex/botflow/pkg/wiring"
	cli "github.com/urfave/cli/v3"
)

func NewAncestorsCommand() *cli.Command {
	return &cli.Command{
		Name:      "ancestors",
		Usage:     "List the upstream nodes and outputs a node can reference",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "node",
				Aliases:  []string{"n"},
				Usage:    "Node id to resolve",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Rank reference suggestions against this text instead of listing ancestors",
			},
			&cli.StringFlag{
				Name:  "workflows-dir",
				Usage: "Directory of <id>.json documents used to expand sub-workflow outputs",
			},
			formatFlag(),
			localeFlag(),
			actionsPathFlag(),
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			raw, err := readInput(command)
			if err != nil {
				return err
			}

			reg, err := newRegistry(command)
			if err != nil {
				return err
			}

			locale, err := parseLocale(command.String("locale"))
			if err != nil {
				return err
			}

			workflow, err := document.NewNormalizer(log.WithModule("document")).Normalize(raw)
			if err != nil {
				return err
			}

			opts := []resolver.Option{
				resolver.WithLocale(locale),
				resolver.WithLogger(log.WithModule("resolver")),
			}
			if dir := command.String("workflows-dir"); dir != "" {
				opts = append(opts, resolver.WithWorkflowSource(dirSource(dir)))
			}

			nodeID := command.String("node")
			if workflow.Node(nodeID) == nil {
				return fmt.Errorf("%w: %s", wiring.ErrNodeNotFound, nodeID)
			}

			res := resolver.New(reg, opts...)

			if command.IsSet("query") {
				suggestions, err := res.Suggest(ctx, workflow, nodeID, command.String("query"))
				if err != nil {
					return err
				}

				return writeOutput(command, suggestions)
			}

			ancestors, err := res.Ancestors(ctx, workflow, nodeID)
			if err != nil {
				return err
			}

			return writeOutput(command, ancestors)
		},
	}
}

func dirSource(dir string) resolver.WorkflowSourceFunc {
	return func(_ context.Context, id string) (any, error) {
		if filepath.Base(id) != id {
			return nil, fmt.Errorf("invalid workflow id %q", id)
		}

		return os.ReadFile(filepath.Join(dir, id+".json"))
	}
}
