package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypeProcessItem asks the worker to process one catalogue item.
const TypeProcessItem = "process_item"

// Envelope is a job message as published: a "type" discriminator plus flat payload fields.
type Envelope struct {
	Type   string
	Fields map[string]any
}

// MarshalJSON flattens Fields next to "type" so the wire form is {"type": "...", ...fields}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Type == "" {
		return nil, errors.New("jobs: envelope type is required")
	}
	flat := make(map[string]any, len(e.Fields)+1)
	for key, value := range e.Fields {
		flat[key] = value
	}
	flat["type"] = e.Type
	return json.Marshal(flat)
}

// ProcessItemEvent builds the envelope published when a user requests processing of an item.
func ProcessItemEvent(itemID uint, requestedBy string) Envelope {
	return Envelope{
		Type: TypeProcessItem,
		Fields: map[string]any{
			"item_id":      itemID,
			"requested_by": requestedBy,
		},
	}
}

// ProcessItemPayload is the decoded form of a process_item job.
type ProcessItemPayload struct {
	ItemID      uint   `json:"item_id"`
	RequestedBy string `json:"requested_by"`
}

// Job is one delivered message after envelope decoding.
type Job struct {
	Type            string
	MessageID       string
	Attributes      map[string]string
	DeliveryAttempt int
	Raw             json.RawMessage
}

// Decode unmarshals the full job payload into v.
func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Raw, v); err != nil {
		return Permanent(fmt.Errorf("decode %s payload: %w", j.Type, err))
	}
	return nil
}

// ErrPermanent marks handler failures that redelivery cannot fix. The push endpoint acknowledges
// them instead of asking the broker to retry.
var ErrPermanent = errors.New("jobs: permanent failure")

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() []error { return []error{e.err, ErrPermanent} }

// Permanent wraps err so errors.Is(err, ErrPermanent) holds.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}
