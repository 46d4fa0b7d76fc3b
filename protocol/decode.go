package protocol

import (
	"bytes"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

// Frame is what a client sends: an event name and its payload.
type Frame struct {
	Event event.Name      `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode parses and validates one inbound frame. The returned name is the
// frame's event, or event.NameUnknown when the frame itself is unreadable,
// so the caller can always answer with an error envelope.
func Decode(raw []byte) (event.Name, Request, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		return event.NameUnknown, nil, errors.ErrIllegalAction
	}

	var req Request
	var err error
	switch frame.Event {
	case event.NameConnect:
		req, err = decodeData[ConnectRequest](frame.Data)
	case event.NameSyncMessages:
		req, err = decodeData[SyncRequest](frame.Data)
	case event.NameMessageCreated:
		req, err = decodeData[CreateMessageRequest](frame.Data)
	case event.NameMessageUpdated:
		req, err = decodeData[UpdateMessageRequest](frame.Data)
	case event.NameMessageDeleted:
		req, err = decodeData[DeleteMessageRequest](frame.Data)
	case event.NameChatSeen:
		req, err = decodeData[MarkSeenRequest](frame.Data)
	case event.NameChatDelivered:
		req, err = decodeData[MarkDeliveredRequest](frame.Data)
	default:
		return frame.Event, nil, errors.ErrIllegalAction
	}
	if err != nil {
		return frame.Event, nil, err
	}
	return frame.Event, req, nil
}

func decodeData[T Request](data json.RawMessage) (T, error) {
	var req T
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := json.Unmarshal(data, &req); err != nil {
			return req, errors.ErrIllegalAction
		}
	}
	if err := Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

// NewFrame encodes a client frame, used by clients and tests.
func NewFrame(name event.Name, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return json.Marshal(Frame{Event: name, Data: payload})
}
