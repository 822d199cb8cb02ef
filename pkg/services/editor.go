package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/botflow/pkg/converter"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/otelhelper"
	"github.com/dukex/botflow/pkg/resolver"
	"github.com/dukex/botflow/pkg/wiring"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

// ActionCatalog resolves action definitions by id.
type ActionCatalog interface {
	Action(id string) (*models.ActionDefinition, bool)
}

// EditorConfig holds the optional collaborators of an Editor.
type EditorConfig struct {
	Locale language.Tag
	IDs    wiring.IDGenerator
	Tracer trace.Tracer
	Logger *slog.Logger
}

// Editor serves the canvas and the node configuration panel. Every operation loads the stored
// document, edits it and writes it back; edits to one workflow are serialised.
type Editor struct {
	workflows *Workflow
	catalog   ActionCatalog
	converter *converter.Converter
	resolver  *resolver.Resolver
	ids       wiring.IDGenerator
	tracer    trace.Tracer
	logger    *slog.Logger

	locks sync.Map // workflow id -> *sync.Mutex
}

// NewEditor creates the editor service on top of the document service.
func NewEditor(workflows *Workflow, catalog ActionCatalog, cfg EditorConfig) *Editor {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otelhelper.NoopTracer()
	}

	if cfg.IDs == nil {
		cfg.IDs = wiring.UUIDGenerator{}
	}

	if cfg.Locale == language.Und {
		cfg.Locale = language.English
	}

	logger := cfg.Logger.With("module", "editor_service")

	return &Editor{
		workflows: workflows,
		catalog:   catalog,
		converter: converter.New(catalog, logger),
		resolver: resolver.New(catalog,
			resolver.WithWorkflowSource(workflows),
			resolver.WithLocale(cfg.Locale),
			resolver.WithLogger(logger),
		),
		ids:    cfg.IDs,
		tracer: cfg.Tracer,
		logger: logger,
	}
}

func (e *Editor) lock(workflowID string) func() {
	value, _ := e.locks.LoadOrStore(workflowID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

// CanvasView is what the canvas widget imports.
type CanvasView struct {
	WorkflowID string              `json:"workflow_id"`
	Name       string              `json:"name"`
	Graph      *models.CanvasGraph `json:"graph"`
	// NodeIDs maps canvas node ids to canonical node ids.
	NodeIDs map[int]string `json:"node_ids"`
}

// LoadCanvas renders the stored document for the canvas.
func (e *Editor) LoadCanvas(ctx context.Context, workflowID string) (*CanvasView, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.load_canvas", attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	workflow, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	graph, ids := e.converter.CanonicalToCanvas(workflow)

	view := &CanvasView{
		WorkflowID: workflow.ID,
		Name:       workflow.Name,
		Graph:      graph,
		NodeIDs:    make(map[int]string, ids.Len()),
	}

	for canvasID := range graph.Nodes {
		if canonical, ok := ids.CanonicalID(canvasID); ok {
			view.NodeIDs[canvasID] = canonical
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.NodeCountKey, len(graph.Nodes)))

	return view, nil
}

// SaveCanvas converts an exported canvas graph and stores it in place of the current document,
// carrying over the document's hidden data edges.
func (e *Editor) SaveCanvas(ctx context.Context, workflowID string, graph *models.CanvasGraph) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.save_canvas", attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	if graph == nil {
		return nil, NewValidationError("SaveCanvas", "CANVAS_REQUIRED", "canvas graph cannot be nil", ErrCanvasNil)
	}

	defer e.lock(workflowID)()

	previous, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflow := e.converter.Save(graph, previous)

	if err := e.workflows.save(ctx, workflow, SourceCanvas); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(
		attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(workflow.Edges)),
	)

	return workflow, nil
}

// Ancestors lists the nodes upstream of nodeID with the outputs each exposes.
func (e *Editor) Ancestors(ctx context.Context, workflowID, nodeID string) ([]resolver.Ancestor, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.ancestors",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
	)
	defer span.End()

	workflow, err := e.nodeWorkflow(ctx, workflowID, nodeID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return e.resolver.Ancestors(ctx, workflow, nodeID)
}

// Suggest ranks the references available to nodeID against query.
func (e *Editor) Suggest(ctx context.Context, workflowID, nodeID, query string) ([]resolver.Suggestion, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.suggest",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
	)
	defer span.End()

	workflow, err := e.nodeWorkflow(ctx, workflowID, nodeID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return e.resolver.Suggest(ctx, workflow, nodeID, query)
}

func (e *Editor) nodeWorkflow(ctx context.Context, workflowID, nodeID string) (*models.Workflow, error) {
	workflow, err := e.workflows.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Node(nodeID) == nil {
		return nil, wiring.ErrNodeNotFound
	}

	return workflow, nil
}
