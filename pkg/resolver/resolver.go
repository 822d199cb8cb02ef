// Package resolver computes which upstream nodes a node can reference and which data outputs
// each of them exposes, including the terminal outputs of referenced sub-workflows.
package resolver

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/template"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// SubworkflowMarker is the synthetic output exposing all terminal outputs of a sub-workflow.
	SubworkflowMarker = "subworkflow_terminal_outputs"

	// WorkflowIDKey is the node data key holding the referenced workflow id.
	WorkflowIDKey = "workflow_id"
)

var subworkflowActionIDs = []string{"run_workflow", "call_workflow", "subworkflow"}

// ActionCatalog resolves action definitions by id.
type ActionCatalog interface {
	Action(id string) (*models.ActionDefinition, bool)
}

// WorkflowSource loads a stored workflow. The value may be in any shape document.Normalizer
// accepts.
type WorkflowSource interface {
	LoadWorkflow(ctx context.Context, id string) (any, error)
}

// WorkflowSourceFunc adapts a function to WorkflowSource.
type WorkflowSourceFunc func(ctx context.Context, id string) (any, error)

// LoadWorkflow calls f.
func (f WorkflowSourceFunc) LoadWorkflow(ctx context.Context, id string) (any, error) {
	return f(ctx, id)
}

// Output is a data output a downstream node can reference.
type Output struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Reference string `json:"reference"`
}

// Ancestor is an upstream node together with the outputs it exposes.
type Ancestor struct {
	NodeID   string   `json:"node_id"`
	ActionID string   `json:"action_id"`
	Label    string   `json:"label"`
	Direct   bool     `json:"direct"`
	Outputs  []Output `json:"outputs"`
}

// Resolver computes ancestors and exposed outputs.
type Resolver struct {
	catalog    ActionCatalog
	workflows  WorkflowSource
	normalizer *document.Normalizer
	locale     language.Tag
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkflowSource enables sub-workflow output expansion.
func WithWorkflowSource(source WorkflowSource) Option {
	return func(r *Resolver) {
		r.workflows = source
	}
}

// WithLocale sets the locale used to order ancestors by label.
func WithLocale(tag language.Tag) Option {
	return func(r *Resolver) {
		r.locale = tag
	}
}

// WithLogger sets the logger used for skipped sub-workflows.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a resolver over the given action catalog.
func New(catalog ActionCatalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		locale:  language.English,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With("component", "resolver")
	r.normalizer = document.NewNormalizer(r.logger)

	return r
}

func (r *Resolver) action(id string) *models.ActionDefinition {
	if r.catalog == nil {
		return nil
	}

	action, ok := r.catalog.Action(id)
	if !ok {
		return nil
	}

	return action
}

// IsSubworkflowAction reports whether nodes of this action reference another workflow.
func IsSubworkflowAction(action *models.ActionDefinition) bool {
	if action == nil {
		return false
	}

	return action.Kind == models.ActionKindSubworkflow || slices.Contains(subworkflowActionIDs, action.ID)
}

// TerminalOutputName encodes a sub-workflow terminal output as a single output name.
func TerminalOutputName(nodeID, output string) string {
	return "terminal_" + template.SanitizeIdentifier(nodeID) + "__" + template.SanitizeIdentifier(output)
}

// Ancestors returns every control-flow ancestor of nodeID with its exposed outputs, ordered by
// label for the resolver's locale.
func (r *Resolver) Ancestors(ctx context.Context, workflow *models.Workflow, nodeID string) ([]Ancestor, error) {
	ids := AncestorIDs(workflow, nodeID)
	direct := DirectPredecessors(workflow, nodeID)

	ancestors := make([]Ancestor, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := workflow.Nodes[id]

		ancestors = append(ancestors, Ancestor{
			NodeID:   id,
			ActionID: node.ActionID,
			Label:    r.Label(node),
			Direct:   slices.Contains(direct, id),
			Outputs:  r.Outputs(ctx, node),
		})
	}

	collator := collate.New(r.locale)

	slices.SortStableFunc(ancestors, func(a, b Ancestor) int {
		if c := collator.CompareString(a.Label, b.Label); c != 0 {
			return c
		}

		return strings.Compare(a.NodeID, b.NodeID)
	})

	return ancestors, nil
}

// Label returns the display label of a node: its "label" or "name" data value, the action name,
// or the node id.
func (r *Resolver) Label(node *models.Node) string {
	for _, key := range []string{"label", "name"} {
		if s, ok := node.Data[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	if action := r.action(node.ActionID); action != nil && action.Name != "" {
		return action.Name
	}

	return node.ID
}

// Outputs returns the data outputs a node exposes to downstream references. Sub-workflow nodes
// additionally expose the marker output and one synthetic output per terminal output of the
// referenced workflow.
func (r *Resolver) Outputs(ctx context.Context, node *models.Node) []Output {
	action := r.action(node.ActionID)
	if action == nil {
		return []Output{}
	}

	outputs := baseOutputs(node.ID, action)

	if IsSubworkflowAction(action) {
		outputs = append(outputs, Output{
			Name:      SubworkflowMarker,
			Type:      "object",
			Synthetic: true,
			Reference: template.BuildNodeReference(node.ID, SubworkflowMarker, ""),
		})

		workflowID, _ := node.Data[WorkflowIDKey].(string)
		for _, out := range r.SubworkflowOutputs(ctx, workflowID) {
			out.Reference = template.BuildNodeReference(node.ID, out.Name, "")
			outputs = append(outputs, out)
		}
	}

	return dedupe(outputs)
}

// SubworkflowOutputs loads the referenced workflow and names one synthetic output per data output
// of each of its terminal nodes. Nested sub-workflows are not expanded. Load failures are logged
// and yield no outputs.
func (r *Resolver) SubworkflowOutputs(ctx context.Context, workflowID string) []Output {
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" || r.workflows == nil {
		return nil
	}

	raw, err := r.workflows.LoadWorkflow(ctx, workflowID)
	if err != nil {
		r.logger.Warn("Failed to load sub-workflow", "workflow_id", workflowID, "error", err)

		return nil
	}

	sub, err := r.normalizer.Normalize(raw)
	if err != nil {
		r.logger.Warn("Failed to normalize sub-workflow", "workflow_id", workflowID, "error", err)

		return nil
	}

	var outputs []Output

	for _, id := range TerminalNodeIDs(sub) {
		action := r.action(sub.Nodes[id].ActionID)
		if action == nil {
			continue
		}

		for _, out := range action.DataOutputs() {
			outputs = append(outputs, Output{
				Name:      TerminalOutputName(id, out.Name),
				Type:      out.Type,
				Synthetic: true,
			})
		}
	}

	return outputs
}

func baseOutputs(nodeID string, action *models.ActionDefinition) []Output {
	declared := action.DataOutputs()
	outputs := make([]Output, 0, len(declared))

	for _, out := range declared {
		outputs = append(outputs, Output{
			Name:      out.Name,
			Type:      out.Type,
			Reference: template.BuildNodeReference(nodeID, out.Name, ""),
		})
	}

	return outputs
}

func dedupe(outputs []Output) []Output {
	seen := make(map[string]bool, len(outputs))
	result := make([]Output, 0, len(outputs))

	for _, out := range outputs {
		if seen[out.Name] {
			continue
		}

		seen[out.Name] = true
		result = append(result, out)
	}

	return result
}
