// Package persistence provides the document store abstraction for workflows.
package persistence

import (
	"context"

	"github.com/dukex/botflow/pkg/models"
)

// Persistence stores canonical workflow documents. Implementations read every stored document
// through the document normalizer, so legacy shapes are accepted, and always write the direct
// shape.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
