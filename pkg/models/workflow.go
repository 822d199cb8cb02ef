// Package models defines the canonical workflow document, the canvas-native graph and the
// action definitions both representations are resolved against.
package models

import (
	"maps"
	"slices"
)

// Workflow is the canonical, canvas-agnostic workflow document.
type Workflow struct {
	ID          string           `json:"id"          yaml:"id"          validate:"required"`
	Name        string           `json:"name"        yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Nodes       map[string]*Node `json:"nodes"       yaml:"nodes"       validate:"dive"`
	Edges       []*Edge          `json:"edges"       yaml:"edges"       validate:"dive"`
}

// NewWorkflow returns an empty document with initialised collections.
func NewWorkflow(id, name string) *Workflow {
	return &Workflow{
		ID:    id,
		Name:  name,
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node is a single action instance in a workflow document.
type Node struct {
	ID       string         `json:"id"        yaml:"id"        validate:"required"`
	ActionID string         `json:"action_id" yaml:"action_id" validate:"required"`
	Position Position       `json:"position"  yaml:"position"`
	Data     map[string]any `json:"data"      yaml:"data"`
}

// Position is a node's placement on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Edge connects an upstream output to a downstream input. Whether it is a control edge or a
// hidden data edge is decided by the flow package from its port names.
type Edge struct {
	ID           string `json:"id"                    yaml:"id"                    validate:"required"`
	SourceNode   string `json:"source_node"           yaml:"source_node"           validate:"required"`
	SourceOutput string `json:"source_output"         yaml:"source_output"         validate:"required"`
	SourcePath   string `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	TargetNode   string `json:"target_node"           yaml:"target_node"           validate:"required"`
	TargetInput  string `json:"target_input"          yaml:"target_input"          validate:"required"`
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *Node {
	if w == nil || w.Nodes == nil {
		return nil
	}

	return w.Nodes[id]
}

// NodeIDs returns the document's node ids in lexical order.
func (w *Workflow) NodeIDs() []string {
	ids := slices.Collect(maps.Keys(w.Nodes))
	slices.Sort(ids)

	return ids
}

// HasEdge reports whether an edge with the given id exists.
func (w *Workflow) HasEdge(id string) bool {
	return slices.ContainsFunc(w.Edges, func(e *Edge) bool { return e.ID == id })
}

// Clone returns a deep copy of the document. Data values are copied one level deep; nested
// maps and slices inside node data are shared, which is safe because editing replaces whole
// values rather than mutating them.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Nodes:       make(map[string]*Node, len(w.Nodes)),
		Edges:       make([]*Edge, 0, len(w.Edges)),
	}

	for id, node := range w.Nodes {
		clone.Nodes[id] = node.Clone()
	}

	for _, edge := range w.Edges {
		e := *edge
		clone.Edges = append(clone.Edges, &e)
	}

	return clone
}

// Clone returns a copy of the node with its own data map.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Data = maps.Clone(n.Data)

	if c.Data == nil {
		c.Data = make(map[string]any)
	}

	return &c
}
