// Package protocol is the application level wire format of a connection:
// inbound frames decode into one Request type per event, outbound events
// encode into a success or error envelope.
package protocol

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"strings"
)

// Request is closed: only the types below implement it.
type Request interface {
	Event() event.Name
	isRequest()
}

type ConnectRequest struct {
	Authorization string `json:"authorization" validate:"required"`
}

type SyncRequest struct{}

type CreateMessageRequest struct {
	Type       string `json:"type" validate:"required,oneof=TEXT IMAGE IMAGE_TEXT"`
	Message    string `json:"message"`
	ImageURL   string `json:"imageUrl"`
	FirebaseID string `json:"firebaseId"`
	ChatID     string `json:"chatId" validate:"required,uuid"`
}

type UpdateMessageRequest struct {
	Message   string `json:"message" validate:"required"`
	MessageID string `json:"messageId" validate:"required,uuid"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId" validate:"required,uuid"`
}

type MarkSeenRequest struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

type MarkDeliveredRequest struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

func (ConnectRequest) Event() event.Name       { return event.NameConnect }
func (SyncRequest) Event() event.Name          { return event.NameSyncMessages }
func (CreateMessageRequest) Event() event.Name { return event.NameMessageCreated }
func (UpdateMessageRequest) Event() event.Name { return event.NameMessageUpdated }
func (DeleteMessageRequest) Event() event.Name { return event.NameMessageDeleted }
func (MarkSeenRequest) Event() event.Name      { return event.NameChatSeen }
func (MarkDeliveredRequest) Event() event.Name { return event.NameChatDelivered }

func (ConnectRequest) isRequest()       {}
func (SyncRequest) isRequest()          {}
func (CreateMessageRequest) isRequest() {}
func (UpdateMessageRequest) isRequest() {}
func (DeleteMessageRequest) isRequest() {}
func (MarkSeenRequest) isRequest()      {}
func (MarkDeliveredRequest) isRequest() {}

func (r CreateMessageRequest) Command() domain.SendMessageCommand {
	cmd := domain.SendMessageCommand{
		ChatID: r.ChatID,
		Type:   domain.MessageType(r.Type),
	}
	if cmd.Type.RequiresText() {
		cmd.Text = strings.TrimSpace(r.Message)
	}
	if cmd.Type.RequiresImage() {
		cmd.Image = &domain.Image{URL: r.ImageURL, FirebaseID: r.FirebaseID}
	}
	return cmd
}

func (r UpdateMessageRequest) Command() domain.UpdateMessageCommand {
	return domain.UpdateMessageCommand{MessageID: r.MessageID, Text: strings.TrimSpace(r.Message)}
}

// REST bodies, validated with the same rules and codes.

type CreateGroupRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,uuid"`
	Name         string   `json:"name" validate:"required"`
	ImageURL     string   `json:"imageUrl" validate:"omitempty,url"`
}

type UpdateGroupRequest struct {
	ChatID       string   `json:"chatId" validate:"required,uuid"`
	Participants []string `json:"participants" validate:"required,min=1,dive,uuid"`
	Name         string   `json:"name" validate:"required"`
	ImageURL     string   `json:"imageUrl" validate:"omitempty,url"`
}

type DeleteGroupRequest struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

type OpenDirectRequest struct {
	AccountID string `json:"accountId" validate:"required,uuid"`
}

type SaveTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (r CreateGroupRequest) Command() domain.CreateGroupCommand {
	return domain.CreateGroupCommand{
		Participants: r.Participants,
		Name:         strings.TrimSpace(r.Name),
		ImageURL:     r.ImageURL,
	}
}

func (r UpdateGroupRequest) Command() domain.UpdateGroupCommand {
	return domain.UpdateGroupCommand{
		ChatID:       r.ChatID,
		Participants: r.Participants,
		Name:         strings.TrimSpace(r.Name),
		ImageURL:     r.ImageURL,
	}
}
