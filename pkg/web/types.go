// Package web provides HTTP request and response types for the editor API.
package web

import (
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/services"
	"github.com/dukex/botflow/pkg/template"
	"github.com/dukex/botflow/pkg/wiring"
)

// SaveCanvasRequest represents the request body for storing an exported canvas graph.
type SaveCanvasRequest struct {
	Graph *models.CanvasGraph `json:"graph" validate:"required"`
}

// SetInputValueRequest represents the request body for storing a literal or reference value.
type SetInputValueRequest struct {
	Value any `json:"value"`
}

// SetInputModeRequest represents the request body for switching an input's value source.
type SetInputModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=literal reference wire"`
}

// SelectWireRequest represents the request body for wiring an input to an upstream output.
type SelectWireRequest struct {
	SourceNode string `json:"source_node" validate:"required"`
	Output     string `json:"output"      validate:"required"`
	Path       string `json:"path,omitempty"`
}

// ExtractVariableRequest represents the request body for moving a wire into a variable.
type ExtractVariableRequest struct {
	Variable string `json:"variable" validate:"required"`
}

// ExtractVariableResponse reports the outcome next to the refreshed node configuration.
type ExtractVariableResponse struct {
	Outcome wiring.ExtractOutcome `json:"outcome"`
	Config  *services.NodeConfig  `json:"config"`
}

// PreviewRequest represents the request body for rendering a value against sample data.
type PreviewRequest struct {
	Value  any            `json:"value"`
	Sample map[string]any `json:"sample"`
}

// PreviewResponse holds the rendered value and the expressions found in the input.
type PreviewResponse struct {
	Kind       template.Kind          `json:"kind"`
	Result     any                    `json:"result"`
	References []template.Description `json:"references"`
	Error      string                 `json:"error,omitempty"`
}

// ActionResponse is an action definition with the data and control outputs its nodes expose.
type ActionResponse struct {
	*models.ActionDefinition

	DataOutputs []models.ActionOutput `json:"data_outputs"`
	FlowOutputs []string              `json:"flow_outputs"`
}
