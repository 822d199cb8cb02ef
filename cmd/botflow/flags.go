package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/botflow/pkg/cmd"
	"github.com/dukex/botflow/pkg/log"
	"github.com/dukex/botflow/pkg/registry"
	"github.com/goccy/go-json"
	cli "github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var errMissingInput = errors.New("an input file is required (use - for stdin)")

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
}

func actionsPathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "actions-path",
		Aliases: []string{"a"},
		Usage:   "Action catalog file or directory loaded on top of the built-in actions",
		Sources: cli.EnvVars("ACTIONS_FILE"),
	}
}

func localeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "locale",
		Usage:   "Locale used to order node labels (BCP 47 tag)",
		Value:   "en",
		Sources: cli.EnvVars("LOCALE"),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (json, yaml)",
		Value:   "json",
		Validator: func(format string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q", format)
			}

			return nil
		},
	}
}

func newRegistry(command *cli.Command) (*registry.Registry, error) {
	logger := log.Setup(command.String("log-level")).With("module", "registry")

	return cmd.NewRegistry(logger, command.String("actions-path"))
}

func parseLocale(tag string) (language.Tag, error) {
	locale, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", tag, err)
	}

	return locale, nil
}

// readInput reads the file named by the first argument, or stdin for "-".
func readInput(command *cli.Command) ([]byte, error) {
	path := command.Args().First()

	switch path {
	case "":
		return nil, errMissingInput
	case "-":
		return io.ReadAll(command.Root().Reader)
	default:
		return os.ReadFile(path)
	}
}

// writeOutput encodes v to the root writer in the selected format.
func writeOutput(command *cli.Command, v any) error {
	w := command.Root().Writer

	if command.String("format") == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(toYAMLValue(v)); err != nil {
			return err
		}

		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// toYAMLValue round-trips v through JSON so the YAML output uses the json field names.
func toYAMLValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return v
	}

	return generic
}
