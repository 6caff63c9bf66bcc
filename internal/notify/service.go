package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"text/template"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
)

// defaultPayloadTemplate renders the message posted to the webhook for
// each stage event. It produces a Slack-compatible payload.
const defaultPayloadTemplate = `{"text": "Pipeline run {{.RunID}} stage {{.Stage}}: {{.Status}}{{if .Error}} ({{.Error}}){{end}}{{if .Processed}} - {{.Processed}} processed, {{.Excluded}} excluded{{end}}"}`

// Service consumes pipeline stage events from NATS and forwards them to a
// configured webhook.
type Service struct {
	natsJS     nats.JetStreamContext
	httpClient *http.Client
	webhookURL string
	tmpl       *template.Template
	onlyFailed bool
}

// NewService creates a notifier posting to webhookURL. When onlyFailed is
// set, completed-stage events are dropped.
func NewService(js nats.JetStreamContext, webhookURL string, onlyFailed bool) (*Service, error) {
	tmpl, err := template.New("payload").Parse(defaultPayloadTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payload template: %w", err)
	}
	return &Service{
		natsJS:     js,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		webhookURL: webhookURL,
		tmpl:       tmpl,
		onlyFailed: onlyFailed,
	}, nil
}

// StartConsuming subscribes to pipeline stage events with a durable
// consumer and forwards each one. Malformed messages are terminated;
// delivery failures are logged and acked to avoid redelivery loops.
func (s *Service) StartConsuming() error {
	subject := "pipeline.>"
	streamName := "PIPELINE" // Must match the stream created by the orchestration publisher
	consumerName := "webhookNotifier"

	log.Printf("Notifier starting to consume from subject '%s', stream '%s', consumer '%s'", subject, streamName, consumerName)

	_, err := s.natsJS.StreamInfo(streamName)
	if err != nil {
		log.Printf("Stream %s not found, attempting to create it...", streamName)
		_, createErr := s.natsJS.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if createErr != nil {
			return fmt.Errorf("failed to create NATS stream %s: %w", streamName, createErr)
		}
		log.Printf("Successfully created NATS stream %s", streamName)
	}

	_, err = s.natsJS.Subscribe(subject, func(msg *nats.Msg) {
		if err := s.handleMessage(msg.Data); err != nil {
			log.Printf("Error handling stage event on %s: %v", msg.Subject, err)
			if termErr := msg.Term(); termErr != nil {
				log.Printf("Error terminating malformed message: %v", termErr)
			}
			return
		}
		if err := msg.Ack(); err != nil {
			log.Printf("Error acknowledging stage event on %s: %v", msg.Subject, err)
		}
	}, nats.Durable(consumerName), nats.AckWait(60*time.Second), nats.ManualAck())

	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s with durable consumer %s: %w", subject, consumerName, err)
	}

	log.Printf("Subscribed to subject '%s' with durable consumer '%s'. Waiting for events...", subject, consumerName)
	return nil
}

// handleMessage unmarshals one stage event and forwards it. An unmarshal
// error is returned so the caller can terminate the message.
func (s *Service) handleMessage(data []byte) error {
	var event orchestration.StageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to unmarshal stage event: %w", err)
	}

	if err := s.Notify(event); err != nil {
		// Delivery failures should not poison the stream.
		log.Printf("Error delivering notification for run %s stage %s: %v", event.RunID, event.Stage, err)
	}
	return nil
}

// Notify renders the payload for one event and posts it to the webhook.
func (s *Service) Notify(event orchestration.StageEvent) error {
	if s.onlyFailed && event.Status != "failed" {
		return nil
	}
	if s.webhookURL == "" {
		return nil
	}

	var payload bytes.Buffer
	if err := s.tmpl.Execute(&payload, event); err != nil {
		return fmt.Errorf("failed to render payload for run %s stage %s: %w", event.RunID, event.Stage, err)
	}

	req, err := http.NewRequest(http.MethodPost, s.webhookURL, &payload)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook at %s: %w", s.webhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook at %s returned status %d", s.webhookURL, resp.StatusCode)
	}

	log.Printf("Delivered notification for run %s stage %s (status: %s)", event.RunID, event.Stage, event.Status)
	return nil
}
