package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db         *sql.DB
	logger     *slog.Logger
	normalizer *document.Normalizer
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger, normalizer *document.Normalizer) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger, normalizer: normalizer}
}

// GetAll returns all workflows ordered by name, then id. Rows whose document cannot be
// normalized are skipped with an error log.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , document
		FROM workflows
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var (
			id  string
			raw []byte
		)

		err := rows.Scan(&id, &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflow, err := r.decode(id, raw)
		if err != nil {
			r.logger.ErrorContext(ctx, "Skipping corrupt workflow document", "workflow_id", id, "error", err)

			continue
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns the normalized document stored under id.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	var raw []byte

	err := r.db.QueryRowContext(ctx, `SELECT document FROM workflows WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to query workflow %s: %w", id, err)
	}

	return r.decode(id, raw)
}

func (r *WorkflowRepository) decode(id string, raw []byte) (*models.Workflow, error) {
	workflow, err := r.normalizer.Normalize(raw)
	if err != nil {
		return nil, &persistence.WorkflowError{
			Op:         "WorkflowByID",
			WorkflowID: id,
			Err:        persistence.ErrCorruptDocument,
			Message:    err.Error(),
		}
	}

	if workflow.ID == "" {
		workflow.ID = id
	}

	return workflow, nil
}

// Save upserts the workflow in the direct shape.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow == nil {
		return errors.New("workflow cannot be nil")
	}

	if err := persistence.ValidateWorkflowID("SaveWorkflow", workflow.ID); err != nil {
		return err
	}

	raw, err := document.Encode(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, document, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , document = EXCLUDED.document
		  , updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, workflow.ID, workflow.Name, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
