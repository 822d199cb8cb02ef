package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/eventbus"
	"github.com/dukex/botflow/pkg/events"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/otelhelper"
	"github.com/dukex/botflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Save sources reported on WorkflowSaved events.
const (
	SourceDocument = "document"
	SourceCanvas   = "canvas"
	SourceSession  = "session"
)

// Workflow stores canonical documents and announces every write.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	normalizer  *document.Normalizer
	validate    *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
}

// WorkflowOption configures a Workflow service.
type WorkflowOption func(*Workflow)

// WithPublisher sets the publisher used for change notifications.
func WithPublisher(publisher eventbus.EventPublisher) WorkflowOption {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

// WithTracer sets the tracer used for service spans.
func WithTracer(tracer trace.Tracer) WorkflowOption {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) WorkflowOption {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		tracer:      otelhelper.NoopTracer(),
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("module", "workflow_service")
	w.normalizer = document.NewNormalizer(w.logger)

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored workflow.
func (w *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID returns the stored document with the given id.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// LoadWorkflow satisfies resolver.WorkflowSource so sub-workflow outputs are read from the store.
func (w *Workflow) LoadWorkflow(ctx context.Context, id string) (any, error) {
	return w.FetchByID(ctx, id)
}

// Create stores a new document. Raw input may be any shape the normalizer accepts; an id is
// generated when the document has none.
func (w *Workflow) Create(ctx context.Context, raw any) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create")
	defer span.End()

	workflow, err := w.normalize("Create", raw)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	} else if _, err := w.persistence.WorkflowByID(ctx, workflow.ID); err == nil {
		return nil, &ServiceError{Op: "Create", Code: "WORKFLOW_EXISTS", Message: "workflow " + workflow.ID + " already exists", Err: ErrWorkflowExists}
	} else if !errors.Is(err, persistence.ErrWorkflowNotFound) {
		return nil, err
	}

	if err := w.save(ctx, workflow, SourceDocument); err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, workflow.ID))

		return nil, err
	}

	return workflow, nil
}

// Update replaces the document stored under id.
func (w *Workflow) Update(ctx context.Context, id string, raw any) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if _, err := w.persistence.WorkflowByID(ctx, id); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflow, err := w.normalize("Update", raw)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflow.ID = id

	if err := w.save(ctx, workflow, SourceDocument); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return workflow, nil
}

// Delete removes a document and announces it.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if err := w.persistence.DeleteWorkflow(ctx, id); err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	w.publish(ctx, id, events.WorkflowDeleted{BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id)})

	return nil
}

// Normalize converts a stored or submitted document of any supported shape to canonical form
// without storing it.
func (w *Workflow) Normalize(raw any) (*models.Workflow, error) {
	return w.normalize("Normalize", raw)
}

func (w *Workflow) normalize(op string, raw any) (*models.Workflow, error) {
	if raw == nil {
		return nil, NewValidationError(op, "WORKFLOW_REQUIRED", "workflow cannot be nil", ErrWorkflowNil)
	}

	workflow, err := w.normalizer.Normalize(raw)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_DOCUMENT", err.Error(), ErrInvalidWorkflow)
	}

	return workflow, nil
}

// save validates and stores workflow, then publishes WorkflowSaved. Publish failures are logged
// and do not fail the write.
func (w *Workflow) save(ctx context.Context, workflow *models.Workflow, source string) error {
	if strings.TrimSpace(workflow.Name) == "" {
		workflow.Name = "Untitled workflow"
	}

	if err := w.validate.Struct(workflow); err != nil {
		return NewValidationError("Save", "INVALID_DOCUMENT", err.Error(), ErrInvalidWorkflow)
	}

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	w.publish(ctx, workflow.ID, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, workflow.ID),
		Name:      workflow.Name,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
		Source:    source,
	})

	return nil
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish workflow event", "workflow_id", key, "event_type", event.GetType(), "error", err)
	}
}
