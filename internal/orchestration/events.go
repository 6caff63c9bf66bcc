package orchestration

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// StageEvent is published after every pipeline stage so downstream
// consumers (notifiers, dashboards) can react without polling the audit
// store.
type StageEvent struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // completed, failed
	Received  int       `json:"received,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Excluded  int       `json:"excluded,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher publishes stage events.
type EventPublisher interface {
	PublishStageEvent(event StageEvent) error
}

const (
	pipelineStreamName = "PIPELINE"
	pipelineSubjects   = "pipeline.>"
)

// NATSPublisher publishes stage events to a JetStream stream.
type NATSPublisher struct {
	js nats.JetStreamContext
}

// NewNATSPublisher creates a publisher and ensures the pipeline stream
// exists (idempotent).
func NewNATSPublisher(js nats.JetStreamContext) (*NATSPublisher, error) {
	_, err := js.StreamInfo(pipelineStreamName)
	if err != nil {
		log.Printf("Stream %s not found, attempting to create it...", pipelineStreamName)
		_, createErr := js.AddStream(&nats.StreamConfig{
			Name:     pipelineStreamName,
			Subjects: []string{pipelineSubjects},
			Storage:  nats.FileStorage,
		})
		if createErr != nil {
			return nil, fmt.Errorf("failed to create NATS stream %s: %w", pipelineStreamName, createErr)
		}
		log.Printf("Successfully created NATS stream %s", pipelineStreamName)
	}
	return &NATSPublisher{js: js}, nil
}

// PublishStageEvent marshals and publishes the event to pipeline.<stage>.
func (p *NATSPublisher) PublishStageEvent(event StageEvent) error {
	subject := fmt.Sprintf("pipeline.%s", event.Stage)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stage event for %s: %w", event.Stage, err)
	}

	pubAck, err := p.js.Publish(subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish stage event to %s: %w", subject, err)
	}
	log.Printf("Published stage event %s for run %s (Stream: %s, Sequence: %d)",
		event.Stage, event.RunID, pubAck.Stream, pubAck.Sequence)
	return nil
}

// NopPublisher drops events. Used when no NATS server is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStageEvent(StageEvent) error { return nil }
