// Package config provides configuration loading for the action catalog
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/botflow/pkg/models"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrNoActions is returned when a catalog file declares no actions.
var ErrNoActions = errors.New("catalog declares no actions")

// ActionCatalogFile represents the structure of an actions.yaml or actions.json file.
type ActionCatalogFile struct {
	Actions []*models.ActionDefinition `json:"actions" yaml:"actions"`
}

// LoadActionCatalog loads action definitions from a YAML or JSON file.
func LoadActionCatalog(path string) ([]*models.ActionDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action catalog %s: %w", path, err)
	}

	return ParseActionCatalog(data)
}

// ParseActionCatalog parses catalog bytes. A bare list of actions is accepted as well as the
// {actions: [...]} document.
func ParseActionCatalog(data []byte) ([]*models.ActionDefinition, error) {
	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		unmarshal = json.Unmarshal
	}

	var file ActionCatalogFile

	if err := unmarshal(data, &file); err != nil {
		var list []*models.ActionDefinition
		if listErr := unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("failed to parse action catalog: %w", err)
		}

		file.Actions = list
	}

	actions := slices.DeleteFunc(file.Actions, func(a *models.ActionDefinition) bool { return a == nil })
	if len(actions) == 0 {
		return nil, ErrNoActions
	}

	for _, action := range actions {
		if action.Kind == "" {
			action.Kind = models.ActionKindModular
		}
	}

	return actions, nil
}

// LoadActionCatalogDir loads every *.yaml, *.yml and *.json file in dir, in lexical order.
func LoadActionCatalogDir(dir string) ([]*models.ActionDefinition, error) {
	root := os.DirFS(dir)

	var paths []string

	err := fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			if !d.IsDir() {
				paths = append(paths, path)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan action catalog dir %s: %w", dir, err)
	}

	slices.Sort(paths)

	var actions []*models.ActionDefinition

	for _, p := range paths {
		loaded, err := LoadActionCatalog(filepath.Join(dir, p))
		if err != nil {
			return nil, err
		}

		actions = append(actions, loaded...)
	}

	return actions, nil
}
