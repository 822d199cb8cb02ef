package main

import (
	"context"

	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

type actionSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	FlowOutputs []string `json:"flow_outputs"`
}

func NewActionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "actions",
		Usage: "List the registered action definitions",
		Flags: []cli.Flag{
			formatFlag(),
			actionsPathFlag(),
			logLevelFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			reg, err := newRegistry(command)
			if err != nil {
				return err
			}

			actions := reg.Actions()
			summaries := make([]actionSummary, 0, len(actions))

			for _, action := range actions {
				summaries = append(summaries, summarize(action))
			}

			return writeOutput(command, summaries)
		},
	}
}

func summarize(action *models.ActionDefinition) actionSummary {
	summary := actionSummary{
		ID:          action.ID,
		Name:        action.Name,
		Inputs:      []string{},
		Outputs:     []string{},
		FlowOutputs: flow.ControlOutputNames(action),
	}

	for _, input := range action.Inputs {
		summary.Inputs = append(summary.Inputs, input.Name)
	}

	for _, output := range action.Outputs {
		summary.Outputs = append(summary.Outputs, output.Name)
	}

	return summary
}
