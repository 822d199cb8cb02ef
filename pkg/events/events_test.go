package events

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, WorkflowSavedEvent, WorkflowSaved{}.GetType())
	assert.Equal(t, WorkflowDeletedEvent, WorkflowDeleted{}.GetType())
	assert.Equal(t, NodeConfiguredEvent, NodeConfigured{}.GetType())
}

func TestNewBaseEvent(t *testing.T) {
	t.Parallel()

	first := NewBaseEvent(WorkflowSavedEvent, "wf-1")
	second := NewBaseEvent(WorkflowSavedEvent, "wf-1")

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "wf-1", first.WorkflowID)
	assert.False(t, first.Timestamp.IsZero())
	assert.NotNil(t, first.Metadata)
}

func TestWorkflowSaved_JSON(t *testing.T) {
	t.Parallel()

	event := WorkflowSaved{
		BaseEvent: NewBaseEvent(WorkflowSavedEvent, "wf-1"),
		Name:      "Greeter",
		NodeCount: 3,
		EdgeCount: 2,
		Source:    "canvas",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"type":"workflow.saved"`)
	assert.Contains(t, string(data), `"workflow_id":"wf-1"`)
	assert.Contains(t, string(data), `"source":"canvas"`)
}
