package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/euthlabs/euth/ports"
)

// AttemptTopic is the topic attempt outcomes are published to.
const AttemptTopic = "euth.attempt.completed"

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     AttemptTopic,
	}
}

// PublishAttemptCompleted publishes an attempt outcome event.
func (p *WatermillPublisher) PublishAttemptCompleted(ctx context.Context, event ports.AttemptCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.SessionID, payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
