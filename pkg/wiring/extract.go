package wiring

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/dukex/botflow/pkg/template"
)

const (
	// SetVariableAction is the action of nodes created by ExtractToVariable.
	SetVariableAction = "set_variable"

	// extractOffsetX places the new node to the right of its source.
	extractOffsetX = 250
)

// ExtractStatus is the result class of a variable extraction.
type ExtractStatus string

const (
	ExtractSuccess ExtractStatus = "success"
	ExtractPartial ExtractStatus = "partial" // Node created but at least one control edge is missing
	ExtractFailed  ExtractStatus = "failed"
)

// ExtractOutcome reports what ExtractToVariable changed.
type ExtractOutcome struct {
	Status     ExtractStatus `json:"status"`
	NodeID     string        `json:"node_id,omitempty"`
	Variable   string        `json:"variable,omitempty"`
	Reference  string        `json:"reference,omitempty"`
	FallbackID bool          `json:"fallback_id,omitempty"`
	// AttachedFrom is the predecessor the new node was connected from when the wire's source
	// could not be.
	AttachedFrom string   `json:"attached_from,omitempty"`
	Failures     []string `json:"failures,omitempty"`
}

// ExtractToVariable replaces the input's wire with a set-variable node fed from the same source.
// The new node is wired into the control flow between the wire's source and the edited node, and
// the input is rewritten to reference the variable. If one of the two control edges cannot be
// added the rest of the edit is kept and the outcome is partial.
func (s *Session) ExtractToVariable(ctx context.Context, inputName, variable string) (ExtractOutcome, error) {
	const op = "ExtractToVariable"

	outcome := ExtractOutcome{Status: ExtractFailed}

	if _, err := s.input(inputName); err != nil {
		return outcome, err
	}

	wire := s.wire(inputName)
	if wire == nil {
		return outcome, ErrNoWire
	}

	path := template.NormalizeVariablePath(variable)
	if path == "" {
		return outcome, newInputError(op, s.nodeID, "variable name is required", map[string]string{inputName: "empty variable name"}, nil)
	}

	setVariable, ok := s.catalog.Action(SetVariableAction)
	if !ok || setVariable == nil {
		return outcome, fmt.Errorf("%s: %w: %s", op, ErrActionNotFound, SetVariableAction)
	}

	source := s.draft.Node(wire.SourceNode)
	if source == nil {
		return outcome, ErrNodeNotFound
	}

	id, err := s.ids.NewID(ctx)
	if err != nil || id == "" || s.draft.Node(id) != nil {
		s.logger.Warn("Falling back to local node id", "error", err)

		id = s.fallbackNodeID(inputName, path)
		outcome.FallbackID = true
	}

	node := NewNode(id, setVariable, models.Position{X: source.Position.X + extractOffsetX, Y: source.Position.Y})
	node.Data["name"] = path
	node.Data["value"] = template.BuildNodeReference(wire.SourceNode, wire.SourceOutput, wire.SourcePath)

	s.draft.Nodes[id] = node

	if err := s.addControlEdge(id, s.nodeID); err != nil {
		outcome.Failures = append(outcome.Failures, err.Error())
	}

	if err := s.addControlEdge(wire.SourceNode, id); err != nil {
		outcome.Failures = append(outcome.Failures, err.Error())
		outcome.AttachedFrom = s.attachFromPredecessor(id, wire.SourceNode)
	}

	s.cancelDrag(inputName)
	s.removeWire(inputName)
	delete(s.choosing, inputName)

	outcome.NodeID = id
	outcome.Variable = path
	outcome.Reference = template.BuildRuntimeVariable(path)
	outcome.Status = ExtractSuccess

	if len(outcome.Failures) > 0 {
		outcome.Status = ExtractPartial
	}

	s.formValues[inputName] = outcome.Reference
	s.modes[inputName] = ModeReference

	return outcome, nil
}

// fallbackNodeID derives an offline node id that is not yet used in the draft.
func (s *Session) fallbackNodeID(parts ...string) string {
	seed := slices.Concat([]string{s.draft.ID, s.nodeID}, parts)

	id := FallbackID(seed...)
	for n := 2; s.draft.Node(id) != nil; n++ {
		id = FallbackID(slices.Concat(seed, []string{strconv.Itoa(n)})...)
	}

	return id
}

// attachFromPredecessor connects the new node from one of the edited node's other direct
// predecessors so it stays reachable. It returns the predecessor used, or "".
func (s *Session) attachFromPredecessor(id, skip string) string {
	for _, pred := range resolver.DirectPredecessors(s.draft, s.nodeID) {
		if pred == id || pred == skip {
			continue
		}

		if err := s.addControlEdge(pred, id); err == nil {
			return pred
		}
	}

	s.logger.Warn("Extracted node has no incoming control edge", "node_id", id)

	return ""
}

// addControlEdge connects source's default control output to target's control input.
func (s *Session) addControlEdge(sourceID, targetID string) error {
	source := s.draft.Node(sourceID)
	if source == nil {
		return fmt.Errorf("control edge %s -> %s: %w", sourceID, targetID, ErrNodeNotFound)
	}

	if s.draft.Node(targetID) == nil {
		return fmt.Errorf("control edge %s -> %s: %w", sourceID, targetID, ErrNodeNotFound)
	}

	action, ok := s.catalog.Action(source.ActionID)
	if !ok || action == nil {
		return fmt.Errorf("control edge %s -> %s: %w: %s", sourceID, targetID, ErrActionNotFound, source.ActionID)
	}

	edge := &models.Edge{
		SourceNode:   sourceID,
		SourceOutput: flow.DefaultControlOutput(action),
		TargetNode:   targetID,
		TargetInput:  flow.ControlInput,
	}
	edge.ID = document.EdgeID(edge)

	if slices.ContainsFunc(s.draft.Edges, func(e *models.Edge) bool { return e.ID == edge.ID }) {
		return nil
	}

	s.draft.Edges = append(slices.Clone(s.draft.Edges), edge)

	return nil
}
