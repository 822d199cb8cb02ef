package file

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations. Each document lives in
// <root>/workflows/<id>.json.
type WorkflowRepository struct {
	root       string
	normalizer *document.Normalizer
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string, normalizer *document.Normalizer) *WorkflowRepository {
	return &WorkflowRepository{root: root, normalizer: normalizer}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

// GetAll returns every stored workflow ordered by name, then id.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := wr.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return workflows, nil
}

// GetByID reads and normalizes a stored workflow.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	if err := persistence.ValidateWorkflowID("WorkflowByID", workflowID); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(wr.path(workflowID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("WorkflowByID", workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	workflow, err := wr.normalizer.Normalize(body)
	if err != nil {
		return nil, &persistence.WorkflowError{
			Op:         "WorkflowByID",
			WorkflowID: workflowID,
			Err:        persistence.ErrCorruptDocument,
			Message:    err.Error(),
		}
	}

	if workflow.ID == "" {
		workflow.ID = workflowID
	}

	return workflow, nil
}

// Save writes the workflow in the direct shape, replacing any previous version.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if workflow == nil {
		return errors.New("workflow cannot be nil")
	}

	if err := persistence.ValidateWorkflowID("SaveWorkflow", workflow.ID); err != nil {
		return err
	}

	err := os.MkdirAll(wr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := document.Encode(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	tmp := wr.path(workflow.ID) + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	if err := os.Rename(tmp, wr.path(workflow.ID)); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	if err := persistence.ValidateWorkflowID("DeleteWorkflow", id); err != nil {
		return err
	}

	err := os.Remove(wr.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
		}

		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
