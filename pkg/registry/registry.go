// Package registry is the action catalog: the read-only definitions every node is resolved
// against. Built-in actions are registered in code; more can be loaded from catalog files.
package registry

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dukex/botflow/pkg/config"
	"github.com/dukex/botflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

type Registry struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	validate *validator.Validate
	actions  map[string]*models.ActionDefinition
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		actions:  make(map[string]*models.ActionDefinition),
	}
}

// Register adds or replaces an action definition after validating it.
func (r *Registry) Register(action *models.ActionDefinition) error {
	if action == nil {
		return fmt.Errorf("action definition cannot be nil")
	}

	if action.Kind == "" {
		action.Kind = models.ActionKindModular
	}

	if err := r.validate.Struct(action); err != nil {
		return fmt.Errorf("invalid action definition '%s': %w", action.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.ID]; exists {
		r.logger.Info("Replacing action definition", "action_id", action.ID)
	}

	r.actions[action.ID] = action

	return nil
}

// Action returns the definition for id.
func (r *Registry) Action(id string) (*models.ActionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[id]

	return action, ok
}

// Actions returns every definition ordered by id.
func (r *Registry) Actions() []*models.ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.SortedFunc(maps.Values(r.actions), func(a, b *models.ActionDefinition) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.actions)
}

// LoadFile registers every action declared in a catalog file.
func (r *Registry) LoadFile(path string) error {
	actions, err := config.LoadActionCatalog(path)
	if err != nil {
		return err
	}

	return r.registerAll(path, actions)
}

// LoadDir registers every action declared in the catalog files of dir.
func (r *Registry) LoadDir(dir string) error {
	actions, err := config.LoadActionCatalogDir(dir)
	if err != nil {
		return err
	}

	return r.registerAll(dir, actions)
}

func (r *Registry) registerAll(source string, actions []*models.ActionDefinition) error {
	l := r.logger.With(slog.String("path", source))
	l.Info("Loading action definitions")

	for _, action := range actions {
		if err := r.Register(action); err != nil {
			return err
		}

		l.Info("Loaded action definition", slog.String("action_id", action.ID))
	}

	return nil
}

// HealthCheck reports whether any action is registered.
func (r *Registry) HealthCheck() (string, bool) {
	n := r.Len()
	if n == 0 {
		return "No actions registered", false
	}

	return fmt.Sprintf("%d actions registered", n), true
}
