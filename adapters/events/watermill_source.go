package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/ports"
)

const (
	// GestureTopic is the topic the gesture classifier publishes to.
	GestureTopic = "euth.gestures"

	// SessionIDMetadataKey is the message metadata key carrying the target
	// session ID.
	SessionIDMetadataKey = "session_id"
)

// gesturePayload is the wire format of one classified gesture.
type gesturePayload struct {
	Gesture    string    `json:"gesture"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// WatermillSource adapts a Watermill subscriber into a GestureStream. The
// classifier pushes gesture messages onto the topic; the source decodes
// them and delivers them on a channel in strict arrival order, making
// ordering and backpressure explicit.
type WatermillSource struct {
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

// NewWatermillSource creates a gesture stream backed by a Watermill
// subscriber.
func NewWatermillSource(subscriber message.Subscriber, logger *slog.Logger) ports.GestureStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatermillSource{
		subscriber: subscriber,
		topic:      GestureTopic,
		logger:     logger,
	}
}

// Gestures subscribes to the gesture topic and returns the decoded stream.
// Messages that cannot be decoded are a contract violation by the
// producer: they are logged, acked, and skipped so one bad message cannot
// wedge the stream.
func (s *WatermillSource) Gestures(ctx context.Context) (<-chan ports.GestureMessage, error) {
	msgs, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.topic, err)
	}

	out := make(chan ports.GestureMessage)

	go func() {
		defer close(out)
		for msg := range msgs {
			gm, err := decodeGestureMessage(msg)
			if err != nil {
				s.logger.Warn("dropping undecodable gesture message",
					"message_uuid", msg.UUID,
					"error", err)
				msg.Ack()
				continue
			}

			select {
			case out <- gm:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()

	return out, nil
}

func decodeGestureMessage(msg *message.Message) (ports.GestureMessage, error) {
	sessionID := msg.Metadata.Get(SessionIDMetadataKey)
	if sessionID == "" {
		return ports.GestureMessage{}, fmt.Errorf("missing %s metadata", SessionIDMetadataKey)
	}

	var payload gesturePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return ports.GestureMessage{}, fmt.Errorf("failed to unmarshal gesture payload: %w", err)
	}

	gesture, err := core.ParseGesture(payload.Gesture)
	if err != nil {
		return ports.GestureMessage{}, err
	}

	observedAt := payload.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	return ports.GestureMessage{
		SessionID: sessionID,
		Event: core.GestureEvent{
			Gesture:    gesture,
			ObservedAt: observedAt,
		},
	}, nil
}
