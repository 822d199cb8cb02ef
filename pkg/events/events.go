// Package events defines the change notifications published after workflow documents are written.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single topic all editor notifications are published on.
const Topic = "botflow.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowSavedEvent   EventType = "workflow.saved"
	WorkflowDeletedEvent EventType = "workflow.deleted"
	NodeConfiguredEvent  EventType = "workflow.node.configured"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WorkflowSaved is published after a document has been written to the store.
type WorkflowSaved struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	// Source is the surface that produced the write: "canvas", "document" or "session".
	Source string `json:"source"`
}

func (w WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (w WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// NodeConfigured is published when a node's input configuration has been applied.
type NodeConfigured struct {
	BaseEvent

	NodeID   string            `json:"node_id"`
	ActionID string            `json:"action_id"`
	Modes    map[string]string `json:"modes,omitempty"`
}

func (n NodeConfigured) GetType() EventType {
	return NodeConfiguredEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
