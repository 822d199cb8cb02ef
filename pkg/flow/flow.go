// Package flow classifies action ports into control-flow routing and data values.
package flow

import (
	"slices"
	"strings"

	"github.com/dukex/botflow/pkg/models"
)

const (
	// ControlInput is the canonical name of a node's control input.
	ControlInput = "flow_in"

	// LegacyControlInput is the control input name written by older documents.
	LegacyControlInput = "exec"

	// ControlOutput is the implicit control output of an action that declares no flow outputs.
	ControlOutput = "flow_out"
)

// controlFlowOutputNames is the closed set of recognised flow-output names.
var controlFlowOutputNames = []string{"next", "true", "false", "try", "catch"}

// ControlInputNames returns the input names treated as control routing.
func ControlInputNames() []string {
	return []string{ControlInput, LegacyControlInput}
}

// IsControlFlowOutputName reports whether the trimmed name is a recognised flow-output name.
func IsControlFlowOutputName(name string) bool {
	return slices.Contains(controlFlowOutputNames, strings.TrimSpace(name))
}

// IsControlInputName reports whether an input with this name routes control rather than data.
func IsControlInputName(name string) bool {
	name = strings.TrimSpace(name)

	return name == ControlInput || name == LegacyControlInput
}

// IsControlEdge reports whether an edge routes control. Everything else is a hidden data edge.
func IsControlEdge(edge *models.Edge) bool {
	if edge == nil {
		return false
	}

	return IsControlInputName(edge.TargetInput) ||
		IsControlFlowOutputName(edge.SourceOutput) ||
		strings.TrimSpace(edge.SourceOutput) == ControlOutput
}

// IsDataEdge reports whether an edge is a hidden data wire.
func IsDataEdge(edge *models.Edge) bool {
	return edge != nil && !IsControlEdge(edge)
}

// FlowOutputs returns the action's flow outputs in declaration order. The position of an output
// in this list is its canvas port index minus one.
func FlowOutputs(action *models.ActionDefinition) []models.ActionOutput {
	if action == nil {
		return nil
	}

	outputs := make([]models.ActionOutput, 0, len(action.Outputs))

	for _, out := range action.Outputs {
		if out.IsFlow() {
			outputs = append(outputs, out)
		}
	}

	return outputs
}

// ControlOutputNames returns the names of the action's control outputs. An action without
// declared flow outputs has exactly one, the implicit ControlOutput.
func ControlOutputNames(action *models.ActionDefinition) []string {
	outputs := FlowOutputs(action)
	if len(outputs) == 0 {
		return []string{ControlOutput}
	}

	names := make([]string, len(outputs))
	for i, out := range outputs {
		names[i] = out.Name
	}

	return names
}

// OutputPortCount returns how many canvas output ports a node of this action gets.
func OutputPortCount(action *models.ActionDefinition) int {
	return len(ControlOutputNames(action))
}

// OutputName maps a 1-based canvas output port index to the canonical output name.
func OutputName(action *models.ActionDefinition, index int) (string, bool) {
	names := ControlOutputNames(action)
	if index < 1 || index > len(names) {
		return "", false
	}

	return names[index-1], true
}

// OutputIndex maps a canonical output name to its 1-based canvas output port index. Actions with
// no declared flow outputs route every control edge through port 1.
func OutputIndex(action *models.ActionDefinition, name string) (int, bool) {
	outputs := FlowOutputs(action)
	if len(outputs) == 0 {
		return 1, true
	}

	name = strings.TrimSpace(name)

	for i, out := range outputs {
		if out.Name == name {
			return i + 1, true
		}
	}

	return 0, false
}

// DefaultControlOutput returns the output used when the editor wires a new control edge out of
// a node of this action: its first flow output, or the implicit ControlOutput.
func DefaultControlOutput(action *models.ActionDefinition) string {
	return ControlOutputNames(action)[0]
}
