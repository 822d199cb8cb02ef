// Package redis provides Redis persistence for workflow documents. Each document is stored as a
// JSON string under its own key and indexed in a set.
package redis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukex/botflow/pkg/document"
	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "botflow"

// Persistence implements persistence.Persistence on top of Redis.
type Persistence struct {
	client     redis.UniversalClient
	logger     *slog.Logger
	normalizer *document.Normalizer
	prefix     string
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects to the Redis instance described by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, logger, defaultPrefix), nil
}

// NewWithClient wraps an existing client. Keys are namespaced under prefix.
func NewWithClient(client redis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{
		client:     client,
		logger:     logger.With("module", "redis_persistence"),
		normalizer: document.NewNormalizer(logger),
		prefix:     cmp.Or(prefix, defaultPrefix),
	}
}

func (p *Persistence) indexKey() string {
	return p.prefix + ":workflows"
}

func (p *Persistence) workflowKey(id string) string {
	return p.prefix + ":workflow:" + id
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Workflows returns every indexed workflow ordered by name, then id. Index entries whose key has
// vanished are skipped.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.client.SMembers(ctx, p.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	if len(ids) == 0 {
		return []*models.Workflow{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = p.workflowKey(id)
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			p.logger.WarnContext(ctx, "Indexed workflow has no document", "workflow_id", ids[i])

			continue
		}

		workflow, err := p.decode(ids[i], raw)
		if err != nil {
			p.logger.ErrorContext(ctx, "Skipping corrupt workflow document", "workflow_id", ids[i], "error", err)

			continue
		}

		workflows = append(workflows, workflow)
	}

	slices.SortFunc(workflows, func(a, b *models.Workflow) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	if err := persistence.ValidateWorkflowID("WorkflowByID", id); err != nil {
		return nil, err
	}

	raw, err := p.client.Get(ctx, p.workflowKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	return p.decode(id, raw)
}

func (p *Persistence) decode(id, raw string) (*models.Workflow, error) {
	workflow, err := p.normalizer.Normalize([]byte(raw))
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

// SaveWorkflow writes the document and its index entry atomically.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
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

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.workflowKey(workflow.ID), raw, 0)
		pipe.SAdd(ctx, p.indexKey(), workflow.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	if err := persistence.ValidateWorkflowID("DeleteWorkflow", id); err != nil {
		return err
	}

	var deleted *redis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.workflowKey(id))
		pipe.SRem(ctx, p.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
