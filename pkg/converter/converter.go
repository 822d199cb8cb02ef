// Package converter translates between the canvas widget's graph and the canonical workflow
// document. Only control edges are rendered on the canvas; data edges live in the document and
// are carried across saves by MergeHiddenEdges.
package converter

import (
	"log/slog"
	"strconv"

	"github.com/dukex/botflow/pkg/models"
)

// ActionCatalog resolves action definitions by id.
type ActionCatalog interface {
	Action(id string) (*models.ActionDefinition, bool)
}

// Converter performs both directions of the conversion against one action catalog.
type Converter struct {
	catalog ActionCatalog
	logger  *slog.Logger
}

// New creates a converter. Nodes whose action is unknown to the catalog are dropped and reported
// to logger.
func New(catalog ActionCatalog, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Converter{
		catalog: catalog,
		logger:  logger.With("component", "converter"),
	}
}

func (c *Converter) action(id string) (*models.ActionDefinition, bool) {
	if c.catalog == nil || id == "" {
		return nil, false
	}

	action, ok := c.catalog.Action(id)
	if !ok || action == nil {
		return nil, false
	}

	return action, true
}

// IDMap is the bidirectional mapping between canonical node ids and canvas node ids built by one
// conversion call.
type IDMap struct {
	toCanvas    map[string]int
	toCanonical map[int]string
}

func newIDMap() *IDMap {
	return &IDMap{
		toCanvas:    make(map[string]int),
		toCanonical: make(map[int]string),
	}
}

func (m *IDMap) add(canonicalID string, canvasID int) {
	m.toCanvas[canonicalID] = canvasID
	m.toCanonical[canvasID] = canonicalID
}

// CanvasID returns the canvas id assigned to a canonical node.
func (m *IDMap) CanvasID(canonicalID string) (int, bool) {
	id, ok := m.toCanvas[canonicalID]

	return id, ok
}

// CanonicalID returns the canonical id of a canvas node.
func (m *IDMap) CanonicalID(canvasID int) (string, bool) {
	id, ok := m.toCanonical[canvasID]

	return id, ok
}

// Len returns the number of mapped nodes.
func (m *IDMap) Len() int {
	return len(m.toCanvas)
}

func canvasKey(id int) string {
	return strconv.Itoa(id)
}
