// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/google/uuid"
)

// Catalog is an in-memory action catalog keyed by action id.
type Catalog map[string]*models.ActionDefinition

// Action implements the catalog lookup used by the converter, resolver and wiring packages.
func (c Catalog) Action(id string) (*models.ActionDefinition, bool) {
	action, ok := c[id]

	return action, ok
}

// NewCatalog indexes the given actions by id.
func NewCatalog(actions ...*models.ActionDefinition) Catalog {
	catalog := make(Catalog, len(actions))
	for _, action := range actions {
		catalog[action.ID] = action
	}

	return catalog
}

// CreateTestAction creates a modular action with one "next" flow output.
func CreateTestAction(id string, overrides ...func(*models.ActionDefinition)) *models.ActionDefinition {
	action := &models.ActionDefinition{
		ID:      id,
		Name:    id,
		Kind:    models.ActionKindModular,
		Outputs: []models.ActionOutput{{Name: "next", Type: models.OutputTypeFlow}},
	}

	for _, override := range overrides {
		override(action)
	}

	return action
}

// WithActionName sets the display name.
func WithActionName(name string) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Name = name
	}
}

// WithInputs replaces the action inputs.
func WithInputs(inputs ...models.ActionInput) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Inputs = inputs
	}
}

// WithOutputs replaces the action outputs.
func WithOutputs(outputs ...models.ActionOutput) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Outputs = outputs
	}
}

// WithKind sets the action kind.
func WithKind(kind models.ActionKind) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Kind = kind
	}
}

// FlowOutput is a shorthand for a control-flow output.
func FlowOutput(name string) models.ActionOutput {
	return models.ActionOutput{Name: name, Type: models.OutputTypeFlow}
}

// DataOutput is a shorthand for a data output.
func DataOutput(name, typ string) models.ActionOutput {
	return models.ActionOutput{Name: name, Type: typ}
}

// CreateTestNode creates a node with default values that can be overridden.
func CreateTestNode(id, actionID string, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       id,
		ActionID: actionID,
		Position: models.Position{X: 100, Y: 200},
		Data:     map[string]any{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithData sets the node data.
func WithData(data map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data = data
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// CreateTestWorkflow creates an empty workflow with a random id.
func CreateTestWorkflow(nodes ...*models.Node) *models.Workflow {
	workflow := models.NewWorkflow(uuid.New().String(), "Test Workflow")
	workflow.Description = "A workflow for testing"

	for _, node := range nodes {
		workflow.Nodes[node.ID] = node
	}

	return workflow
}

// ControlEdge creates a control edge from source's output into target's control input.
func ControlEdge(source, output, target string) *models.Edge {
	return &models.Edge{
		ID:           "c_" + source + "_" + output + "__" + target,
		SourceNode:   source,
		SourceOutput: output,
		TargetNode:   target,
		TargetInput:  flow.ControlInput,
	}
}

// DataEdge creates a hidden data edge from source's output into target's input.
func DataEdge(source, output, target, input string) *models.Edge {
	return &models.Edge{
		ID:           "d_" + source + "_" + output + "__" + target + "_" + input,
		SourceNode:   source,
		SourceOutput: output,
		TargetNode:   target,
		TargetInput:  input,
	}
}
