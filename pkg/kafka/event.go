package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope names an event before its payload is attached.
type Envelope struct {
	// Type is the event name, e.g. "storefront.cart.updated".
	Type string
	// Key partitions the topic. Events sharing a key stay ordered.
	Key string
	// Scope is what Key identifies, e.g. "session".
	Scope  string
	Source string
}

// Event is the JSON document written as the message value.
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"event_type"`
	Key           string          `json:"key"`
	Scope         string          `json:"scope"`
	Source        string          `json:"source"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent stamps env with a fresh id and the current time and encodes data
// as the payload.
func NewEvent(env Envelope, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", env.Type, err)
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       env.Type,
		Key:        env.Key,
		Scope:      env.Scope,
		Source:     env.Source,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// WithCorrelationID ties the event to the request that caused it.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// Decode unmarshals the payload into target.
func (e *Event) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}
