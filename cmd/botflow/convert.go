package main

import (
	"context"
	"fmt"

	"github.com/dukex/botflow/pkg/converter"
	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/log"
	"github.com/dukex/botflow/pkg/models"
	"github.com/goccy/go-json"
	cli "github.com/urfave/cli/v3"
)

func NewConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a workflow between the canonical and canvas representations",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Target representation (canvas, canonical)",
				Value: "canvas",
				Validator: func(target string) error {
					if target != "canvas" && target != "canonical" {
						return fmt.Errorf("unsupported target %q", target)
					}

					return nil
				},
			},
			formatFlag(),
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

			conv := converter.New(reg, log.WithModule("converter"))

			if command.String("to") == "canonical" {
				graph := models.NewCanvasGraph()
				if err := json.Unmarshal(raw, graph); err != nil {
					return fmt.Errorf("invalid canvas graph: %w", err)
				}

				return writeOutput(command, conv.CanvasToCanonical(graph))
			}

			workflow, err := document.NewNormalizer(log.WithModule("document")).Normalize(raw)
			if err != nil {
				return err
			}

			graph, _ := conv.CanonicalToCanvas(workflow)

			return writeOutput(command, graph)
		},
	}
}
