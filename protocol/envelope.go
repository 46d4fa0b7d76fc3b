package protocol

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Envelope is what the server sends. Errors carries every failing code.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Name    event.Name      `json:"name"`
	Details json.RawMessage `json:"details,omitempty"`
	Errors  []errors.Code   `json:"errors,omitempty"`
}

// Encode maps every event to its envelope.
func Encode(e event.Event) (Envelope, error) {
	switch ev := e.(type) {
	case event.Rejected:
		return Envelope{Kind: KindError, Name: ev.Request, Errors: ev.Codes}, nil
	case event.Connected, event.ChatsSynced,
		event.MessageSent, event.MessageEdited, event.MessageRemoved,
		event.SeenAcked, event.DeliveredAcked,
		event.MessageCreated, event.MessageUpdated, event.MessageDeleted,
		event.ChatSeen, event.ChatDelivered:
		details, err := json.Marshal(ev)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s: %w", e.Name(), err)
		}
		return Envelope{Kind: KindSuccess, Name: e.Name(), Details: details}, nil
	default:
		return Envelope{}, fmt.Errorf("unknown event %T", e)
	}
}

func Marshal(e event.Event) ([]byte, error) {
	envelope, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}
