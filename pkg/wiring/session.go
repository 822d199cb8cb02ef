// Package wiring holds the editing state of one node's configuration: which value source each
// input uses, hidden wire edges, and the compound edits built on them. All edits apply to a draft
// copy of the document and reach the document only through Apply.
package wiring

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/flow"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/dukex/botflow/pkg/template"
)

// Mode is the value source of an input.
type Mode string

const (
	ModeLiteral   Mode = "literal"   // Stored value used as-is
	ModeReference Mode = "reference" // Stored value is a reference template
	ModeWire      Mode = "wire"      // Value supplied by a hidden data edge
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeLiteral || m == ModeReference || m == ModeWire
}

// ActionCatalog resolves action definitions by id.
type ActionCatalog interface {
	Action(id string) (*models.ActionDefinition, bool)
}

// InputState is the view of one input in the session.
type InputState struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Required bool         `json:"required"`
	Mode     Mode         `json:"mode"`
	Value    any          `json:"value,omitempty"`
	Wire     *models.Edge `json:"wire,omitempty"`
	Choosing bool         `json:"choosing,omitempty"`
}

// Session edits the configuration of one node.
type Session struct {
	document *models.Workflow
	draft    *models.Workflow
	nodeID   string
	action   *models.ActionDefinition
	catalog  ActionCatalog
	ids      IDGenerator
	logger   *slog.Logger

	formValues map[string]any
	modes      map[string]Mode
	choosing   map[string]bool
	drag       *Drag
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIDGenerator sets the generator used for nodes created by ExtractToVariable.
func WithIDGenerator(ids IDGenerator) SessionOption {
	return func(s *Session) {
		s.ids = ids
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession opens a session on nodeID. The document is not modified until Apply.
func NewSession(doc *models.Workflow, nodeID string, catalog ActionCatalog, opts ...SessionOption) (*Session, error) {
	node := doc.Node(nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}

	action, ok := catalog.Action(node.ActionID)
	if !ok || action == nil {
		return nil, ErrActionNotFound
	}

	s := &Session{
		document: doc,
		draft:    doc.Clone(),
		nodeID:   nodeID,
		action:   action,
		catalog:  catalog,
		ids:      UUIDGenerator{},
		logger:   slog.New(slog.DiscardHandler),
		choosing: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "wiring", "node_id", nodeID)
	s.reset()

	return s, nil
}

// reset derives form values and modes from the draft node.
func (s *Session) reset() {
	s.formValues = maps.Clone(s.draft.Nodes[s.nodeID].Data)
	if s.formValues == nil {
		s.formValues = make(map[string]any)
	}

	s.modes = make(map[string]Mode)

	for _, input := range s.inputs() {
		switch {
		case s.wire(input.Name) != nil:
			s.modes[input.Name] = ModeWire
		case template.IsReference(s.formValues[input.Name]):
			s.modes[input.Name] = ModeReference
		default:
			s.modes[input.Name] = ModeLiteral
		}
	}
}

// NodeID returns the node being edited.
func (s *Session) NodeID() string {
	return s.nodeID
}

// Action returns the node's action definition.
func (s *Session) Action() *models.ActionDefinition {
	return s.action
}

// Draft returns the session's working copy of the document.
func (s *Session) Draft() *models.Workflow {
	return s.draft
}

// inputs returns the inputs that carry values; control inputs are routing only.
func (s *Session) inputs() []models.ActionInput {
	var inputs []models.ActionInput

	for _, input := range s.action.EffectiveInputs() {
		if !flow.IsControlInputName(input.Name) {
			inputs = append(inputs, input)
		}
	}

	return inputs
}

func (s *Session) input(name string) (models.ActionInput, error) {
	for _, input := range s.inputs() {
		if input.Name == name {
			return input, nil
		}
	}

	return models.ActionInput{}, ErrUnknownInput
}

// wire returns the hidden data edge feeding an input, if any.
func (s *Session) wire(input string) *models.Edge {
	for _, edge := range s.draft.Edges {
		if edge.TargetNode == s.nodeID && edge.TargetInput == input && flow.IsDataEdge(edge) {
			return edge
		}
	}

	return nil
}

// removeWire drops every data edge feeding the input.
func (s *Session) removeWire(input string) {
	s.draft.Edges = slices.DeleteFunc(slices.Clone(s.draft.Edges), func(edge *models.Edge) bool {
		return edge.TargetNode == s.nodeID && edge.TargetInput == input && flow.IsDataEdge(edge)
	})
}

// Mode returns the current value-source mode of an input.
func (s *Session) Mode(input string) Mode {
	return s.modes[input]
}

// FormValues returns a copy of the pending input values.
func (s *Session) FormValues() map[string]any {
	return maps.Clone(s.formValues)
}

// Inputs returns the state of every value input in declaration order.
func (s *Session) Inputs() []InputState {
	inputs := s.inputs()
	states := make([]InputState, 0, len(inputs))

	for _, input := range inputs {
		state := InputState{
			Name:     input.Name,
			Type:     input.Type,
			Required: input.Required,
			Mode:     s.modes[input.Name],
			Choosing: s.choosing[input.Name],
		}

		if edge := s.wire(input.Name); edge != nil {
			e := *edge
			state.Wire = &e
		} else {
			state.Value = s.formValues[input.Name]
		}

		states = append(states, state)
	}

	return states
}

// SetValue stores a literal or reference value. Any wire feeding the input is removed and the
// mode follows the value.
func (s *Session) SetValue(input string, value any) error {
	if _, err := s.input(input); err != nil {
		return err
	}

	s.cancelDrag(input)
	s.removeWire(input)
	delete(s.choosing, input)

	s.formValues[input] = value

	if template.IsReference(value) {
		s.modes[input] = ModeReference
	} else {
		s.modes[input] = ModeLiteral
	}

	return nil
}

// SetMode switches the value source of an input.
//
// Switching to reference materialises an existing wire as a template and removes the wire.
// Switching to wire without an existing wire marks the input as awaiting a source. Switching to
// literal removes any wire and coerces the stored value to the declared type.
func (s *Session) SetMode(inputName string, mode Mode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}

	input, err := s.input(inputName)
	if err != nil {
		return err
	}

	s.cancelDrag(inputName)

	switch mode {
	case ModeReference:
		if edge := s.wire(inputName); edge != nil {
			s.formValues[inputName] = template.BuildNodeReference(edge.SourceNode, edge.SourceOutput, edge.SourcePath)
		} else if !template.IsReference(s.formValues[inputName]) {
			s.formValues[inputName] = ""
		}

		s.removeWire(inputName)
		delete(s.choosing, inputName)
	case ModeWire:
		s.choosing[inputName] = s.wire(inputName) == nil
	case ModeLiteral:
		s.removeWire(inputName)
		delete(s.choosing, inputName)
		s.formValues[inputName] = CoerceLiteral(input, s.formValues[inputName])
	}

	s.modes[inputName] = mode

	return nil
}

// SelectWireSource wires an upstream output into the input, replacing any previous wire.
func (s *Session) SelectWireSource(inputName, sourceNode, output, path string) error {
	if _, err := s.input(inputName); err != nil {
		return err
	}

	if !slices.Contains(resolver.AncestorIDs(s.draft, s.nodeID), sourceNode) {
		return ErrNotAncestor
	}

	if output == "" || flow.IsControlFlowOutputName(output) || output == flow.ControlOutput {
		return newInputError("SelectWireSource", s.nodeID, "a data output is required", map[string]string{inputName: "invalid output " + output}, nil)
	}

	edge := &models.Edge{
		SourceNode:   sourceNode,
		SourceOutput: output,
		SourcePath:   template.NormalizeSubPath(path),
		TargetNode:   s.nodeID,
		TargetInput:  inputName,
	}
	edge.ID = document.EdgeID(edge)

	edges := slices.DeleteFunc(slices.Clone(s.draft.Edges), func(e *models.Edge) bool {
		return e.ID == edge.ID || (e.TargetNode == s.nodeID && e.TargetInput == inputName && flow.IsDataEdge(e))
	})
	s.draft.Edges = append(edges, edge)

	s.modes[inputName] = ModeWire
	delete(s.choosing, inputName)

	return nil
}

// RemoveWire deletes the wire feeding an input and returns it to literal mode.
func (s *Session) RemoveWire(inputName string) error {
	if s.wire(inputName) == nil {
		return ErrNoWire
	}

	return s.SetMode(inputName, ModeLiteral)
}

// ConvertWireToReference replaces the input's wire with the equivalent reference template.
func (s *Session) ConvertWireToReference(inputName string) error {
	if _, err := s.input(inputName); err != nil {
		return err
	}

	if s.wire(inputName) == nil {
		return ErrNoWire
	}

	return s.SetMode(inputName, ModeReference)
}

// Discard drops every uncommitted edit.
func (s *Session) Discard() {
	s.cancelDrag("")
	s.draft = s.document.Clone()
	s.choosing = make(map[string]bool)
	s.reset()
}

// Apply validates the form and commits the draft into the document. Required inputs need a value
// or a wire. On a validation error nothing is committed.
func (s *Session) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if fields := s.missingRequired(); len(fields) > 0 {
		return newInputError("Apply", s.nodeID, "required inputs are missing", fields, nil)
	}

	return s.Commit(ctx)
}

// Commit writes the draft into the document without the required-input check, so a node can be
// configured one input at a time. Wired inputs are stored without a data value since the wire
// takes precedence.
func (s *Session) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	node := s.draft.Nodes[s.nodeID]
	if node == nil {
		return ErrNodeNotFound
	}

	data := maps.Clone(s.formValues)

	for name, mode := range s.modes {
		if mode == ModeWire {
			delete(data, name)
		}
	}

	node.Data = data

	committed := s.draft.Clone()
	*s.document = *committed

	s.logger.Debug("Committed node configuration", "workflow_id", s.document.ID)

	return nil
}

// missingRequired lists required inputs that have neither a value nor a wire.
func (s *Session) missingRequired() map[string]string {
	fields := make(map[string]string)

	for _, input := range s.inputs() {
		if !input.Required {
			continue
		}

		if s.modes[input.Name] == ModeWire {
			if s.wire(input.Name) == nil {
				fields[input.Name] = "select a source to wire"
			}

			continue
		}

		if isEmpty(s.formValues[input.Name]) {
			fields[input.Name] = "required"
		}
	}

	return fields
}

// Close cancels any drag in progress. The document is left untouched.
func (s *Session) Close() {
	s.cancelDrag("")
}

func (s *Session) cancelDrag(input string) {
	if s.drag == nil {
		return
	}

	if input == "" || s.drag.input == input {
		s.drag.Cancel()
		s.drag = nil
	}
}
