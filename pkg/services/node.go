package services

import (
	"context"
	"slices"

	"github.com/dukex/botflow/pkg/events"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/otelhelper"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/dukex/botflow/pkg/wiring"
	"go.opentelemetry.io/otel/attribute"
)

// NodeConfig is the configuration panel view of one node.
type NodeConfig struct {
	WorkflowID string              `json:"workflow_id"`
	NodeID     string              `json:"node_id"`
	ActionID   string              `json:"action_id"`
	Inputs     []wiring.InputState `json:"inputs"`
	Ancestors  []resolver.Ancestor `json:"ancestors"`
}

// NodeConfig returns the current configuration view of nodeID.
func (e *Editor) NodeConfig(ctx context.Context, workflowID, nodeID string) (*NodeConfig, error) {
	workflow, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	session, err := e.session(workflow, nodeID)
	if err != nil {
		return nil, err
	}

	return e.view(ctx, workflow, session)
}

// SetInputValue stores a literal or reference value for an input, replacing any wire.
func (e *Editor) SetInputValue(ctx context.Context, workflowID, nodeID, input string, value any) (*NodeConfig, error) {
	return e.edit(ctx, "editor.set_input_value", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		return s.SetValue(input, value)
	})
}

// SetInputMode switches an input's value source. Switching to wire without a source only
// reports the pending state; nothing is stored until SelectWireSource.
func (e *Editor) SetInputMode(ctx context.Context, workflowID, nodeID, input string, mode wiring.Mode) (*NodeConfig, error) {
	return e.edit(ctx, "editor.set_input_mode", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		return s.SetMode(input, mode)
	})
}

// SelectWireSource wires input to an output of an ancestor.
func (e *Editor) SelectWireSource(ctx context.Context, workflowID, nodeID, input, sourceNode, output, path string) (*NodeConfig, error) {
	return e.edit(ctx, "editor.select_wire_source", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		return s.SelectWireSource(input, sourceNode, output, path)
	})
}

// RemoveWire drops the wire feeding input.
func (e *Editor) RemoveWire(ctx context.Context, workflowID, nodeID, input string) (*NodeConfig, error) {
	return e.edit(ctx, "editor.remove_wire", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		return s.RemoveWire(input)
	})
}

// ConvertWireToReference replaces the wire feeding input with the equivalent reference template.
func (e *Editor) ConvertWireToReference(ctx context.Context, workflowID, nodeID, input string) (*NodeConfig, error) {
	return e.edit(ctx, "editor.convert_wire", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		return s.ConvertWireToReference(input)
	})
}

// ExtractToVariable moves the wire feeding input into a new set-variable node. A partial outcome
// is stored like a successful one.
func (e *Editor) ExtractToVariable(ctx context.Context, workflowID, nodeID, input, variable string) (wiring.ExtractOutcome, *NodeConfig, error) {
	var outcome wiring.ExtractOutcome

	config, err := e.edit(ctx, "editor.extract_variable", workflowID, nodeID, input, false, func(s *wiring.Session) error {
		var err error

		outcome, err = s.ExtractToVariable(ctx, input, variable)

		return err
	})
	if err != nil {
		return outcome, nil, err
	}

	if outcome.Status == wiring.ExtractPartial {
		e.logger.WarnContext(ctx, "Variable extraction stored without all control edges",
			"workflow_id", workflowID, "node_id", nodeID, "failures", outcome.Failures)
	}

	return outcome, config, nil
}

// RawConfig returns the node's stored configuration as indented JSON.
func (e *Editor) RawConfig(ctx context.Context, workflowID, nodeID string) ([]byte, error) {
	workflow, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	session, err := e.session(workflow, nodeID)
	if err != nil {
		return nil, err
	}

	return session.RawConfig()
}

// ApplyRawConfig replaces the node's configuration with a raw JSON object.
func (e *Editor) ApplyRawConfig(ctx context.Context, workflowID, nodeID string, raw []byte) (*NodeConfig, error) {
	return e.edit(ctx, "editor.apply_raw_config", workflowID, nodeID, "", true, func(s *wiring.Session) error {
		return s.ApplyRawJSON(raw)
	})
}

func (e *Editor) session(workflow *models.Workflow, nodeID string) (*wiring.Session, error) {
	return wiring.NewSession(workflow, nodeID, e.catalog,
		wiring.WithIDGenerator(e.ids),
		wiring.WithLogger(e.logger),
	)
}

// edit runs fn in a session on the stored document, commits it and stores the result. Single-input
// edits commit a partially configured node; complete edits must satisfy every required input.
func (e *Editor) edit(ctx context.Context, name, workflowID, nodeID, input string, complete bool, fn func(*wiring.Session) error) (*NodeConfig, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, name,
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.String(otelhelper.InputNameKey, input),
	)
	defer span.End()

	defer e.lock(workflowID)()

	workflow, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	session, err := e.session(workflow, nodeID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	defer session.Close()

	if err := fn(session); err != nil {
		otelhelper.SetErrorKind(span, err, errorKind(err))

		return nil, err
	}

	if slices.ContainsFunc(session.Inputs(), func(s wiring.InputState) bool { return s.Choosing }) {
		return e.view(ctx, session.Draft(), session)
	}

	commit := session.Commit
	if complete {
		commit = session.Apply
	}

	if err := commit(ctx); err != nil {
		otelhelper.SetErrorKind(span, err, errorKind(err))

		return nil, err
	}

	if err := e.workflows.save(ctx, workflow, SourceSession); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	config, err := e.view(ctx, workflow, session)
	if err != nil {
		return nil, err
	}

	modes := make(map[string]string, len(config.Inputs))
	for _, in := range config.Inputs {
		modes[in.Name] = string(in.Mode)
	}

	e.workflows.publish(ctx, workflowID, events.NodeConfigured{
		BaseEvent: events.NewBaseEvent(events.NodeConfiguredEvent, workflowID),
		NodeID:    nodeID,
		ActionID:  config.ActionID,
		Modes:     modes,
	})

	return config, nil
}

func (e *Editor) view(ctx context.Context, workflow *models.Workflow, session *wiring.Session) (*NodeConfig, error) {
	ancestors, err := e.resolver.Ancestors(ctx, workflow, session.NodeID())
	if err != nil {
		return nil, err
	}

	return &NodeConfig{
		WorkflowID: workflow.ID,
		NodeID:     session.NodeID(),
		ActionID:   session.Action().ID,
		Inputs:     session.Inputs(),
		Ancestors:  ancestors,
	}, nil
}
