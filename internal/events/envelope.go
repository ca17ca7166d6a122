package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleixjf/ms-orders-management-sub000/internal/domain"
)

// Headers carried by every message on every topic.
type Headers struct {
	EventType string `json:"eventType"`
}

// Envelope is the transport-neutral wrapper for every message. The id is
// fresh per message; the pattern doubles as the routing key.
type Envelope struct {
	ID            string          `json:"id"`
	Pattern       string          `json:"pattern"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     string          `json:"timestamp"`
	Headers       Headers         `json:"headers"`
	CorrelationID string          `json:"correlationId,omitempty"`
	ReplyTo       string          `json:"replyTo,omitempty"`
}

// NewEnvelope wraps a domain event with a freshly generated message id.
func NewEnvelope(event domain.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event payload: %w", err)
	}
	occurred := event.OccurredOn()
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return Envelope{
		ID:        uuid.New().String(),
		Pattern:   event.Pattern(),
		Payload:   payload,
		Timestamp: occurred.UTC().Format(time.RFC3339),
		Headers:   Headers{EventType: event.Pattern()},
	}, nil
}

// DeadLetter is the body published to a <topic>.dlq sibling: the original
// message verbatim plus the error that made it unprocessable.
type DeadLetter struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// NewDeadLetter preserves the raw bytes as-is when they are valid JSON and
// quotes them otherwise, so malformed payloads survive inspection.
func NewDeadLetter(raw []byte, cause error) DeadLetter {
	msg := json.RawMessage(raw)
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(raw))
		msg = quoted
	}
	return DeadLetter{Message: msg, Error: cause.Error()}
}
