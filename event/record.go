package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the serialized journal form of an event. The bus journal stores
// records, not live Event values: a record carries the discriminant, the
// capture time, a monotonic per-journal sequence number, and a JSON-shaped
// payload snapshot of the event's fields.
type Record struct {
	// Seq is a monotonic sequence number assigned by the journaling side
	// (1-indexed, 0 means unassigned).
	Seq uint64 `json:"seq"`

	// Kind is the event discriminant.
	Kind Kind `json:"kind"`

	// Time is when the record was captured.
	Time time.Time `json:"time"`

	// Payload is a JSON-compatible snapshot of the event's fields.
	Payload map[string]any `json:"payload"`
}

// NewRecord captures an event into a Record with the given sequence number
// and the current timestamp. The event's exported fields become the payload.
func NewRecord(seq uint64, e Event) (Record, error) {
	payload, err := payloadOf(e)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Seq:     seq,
		Kind:    e.EventKind(),
		Time:    time.Now(),
		Payload: payload,
	}, nil
}

// payloadOf flattens an event into a JSON-compatible map.
func payloadOf(e Event) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s payload: %w", e.EventKind(), err)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("event: snapshot %s payload: %w", e.EventKind(), err)
	}
	return payload, nil
}
