// Package events defines the notifications published when a candidate workflow is judged.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const Topic = "wflguard.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowAcceptedEvent EventType = "workflow.accepted"
	WorkflowRejectedEvent EventType = "workflow.rejected"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WorkflowAccepted is published after a candidate passes every stage.
type WorkflowAccepted struct {
	BaseEvent

	Source     string        `json:"source"`
	Normalized bool          `json:"normalized"`
	Steps      int           `json:"steps"`
	Duration   time.Duration `json:"duration"`
}

func (w WorkflowAccepted) GetType() EventType {
	return WorkflowAcceptedEvent
}

// WorkflowRejected carries the first violation found.
type WorkflowRejected struct {
	BaseEvent

	Source   string        `json:"source"`
	Stage    string        `json:"stage"`
	Kind     string        `json:"kind"`
	Reason   string        `json:"reason,omitempty"`
	Path     string        `json:"path,omitempty"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
}

func (w WorkflowRejected) GetType() EventType {
	return WorkflowRejectedEvent
}

// NewBaseEvent stamps a fresh event. workflowID is the digest of the candidate document.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
