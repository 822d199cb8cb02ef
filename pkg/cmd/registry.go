// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/botflow/pkg/registry"
)

// NewRegistry returns a registry holding the built-in actions plus those declared in
// actionsPath, which may be a catalog file or a directory of them. An empty path loads nothing.
func NewRegistry(log *slog.Logger, actionsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultActions()

	if actionsPath == "" {
		return reg, nil
	}

	info, err := os.Stat(actionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read action catalog: %w", err)
	}

	if info.IsDir() {
		err = reg.LoadDir(actionsPath)
	} else {
		err = reg.LoadFile(actionsPath)
	}

	if err != nil {
		return nil, err
	}

	return reg, nil
}
