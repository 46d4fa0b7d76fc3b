// Package event defines every event pushed to a connection.
// The set is closed: only types of this package implement Event.
package event

import (
	"chat-relay/domain"
	"chat-relay/errors"
)

type Name string

// Confirmations returned to the connection that issued the request.
const (
	NameConnected      Name = "CONNECTED"
	NameChatsSynced    Name = "sync-chat"
	NameMessageSent    Name = "MESSAGE_SENT"
	NameMessageEdited  Name = "MESSAGE_UPDATED"
	NameMessageRemoved Name = "MESSAGE_DELETED"
	NameSeenAcked      Name = "SEEN"
	NameDeliveredAcked Name = "DELIVERED"
)

// Fan-out names. Requests reuse them for the matching inbound event.
const (
	NameMessageCreated Name = "create-message"
	NameMessageUpdated Name = "update-message"
	NameMessageDeleted Name = "delete-message"
	NameChatSeen       Name = "mark-seen"
	NameChatDelivered  Name = "mark-delivered"
)

// Inbound only.
const (
	NameConnect      Name = "connect"
	NameSyncMessages Name = "sync-message"
	NameUnknown      Name = "unknown"
)

type Event interface {
	Name() Name
	isEvent()
}

type Connected struct {
	AccountID string `json:"id"`
}

type ChatsSynced struct {
	Chats []domain.ChatView `json:"chats"`
}

type MessageSent struct {
	ChatID  string         `json:"chatId"`
	Message domain.Message `json:"message"`
}

type MessageEdited struct {
	ChatID  string         `json:"chatId"`
	Message domain.Message `json:"message"`
}

type MessageRemoved struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

type SeenAcked struct {
	ChatID string `json:"chatId"`
}

type DeliveredAcked struct {
	ChatID string `json:"chatId"`
}

// MessageCreated is pushed to online participants other than the sender.
type MessageCreated struct {
	ChatID  string         `json:"chatId"`
	Message domain.Message `json:"message"`
}

type MessageUpdated struct {
	ChatID  string         `json:"chatId"`
	Message domain.Message `json:"message"`
}

type MessageDeleted struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// ChatSeen tells a participant that AccountID has seen the latest message.
type ChatSeen struct {
	ChatID    string `json:"chatId"`
	AccountID string `json:"accountId"`
}

// ChatDelivered tells a participant that AccountID received the latest message.
type ChatDelivered struct {
	ChatID    string `json:"chatId"`
	AccountID string `json:"accountId"`
}

// Rejected answers a request that failed; Request names the inbound event.
type Rejected struct {
	Request Name
	Codes   []errors.Code
}

func (Connected) Name() Name      { return NameConnected }
func (ChatsSynced) Name() Name    { return NameChatsSynced }
func (MessageSent) Name() Name    { return NameMessageSent }
func (MessageEdited) Name() Name  { return NameMessageEdited }
func (MessageRemoved) Name() Name { return NameMessageRemoved }
func (SeenAcked) Name() Name      { return NameSeenAcked }
func (DeliveredAcked) Name() Name { return NameDeliveredAcked }
func (MessageCreated) Name() Name { return NameMessageCreated }
func (MessageUpdated) Name() Name { return NameMessageUpdated }
func (MessageDeleted) Name() Name { return NameMessageDeleted }
func (ChatSeen) Name() Name       { return NameChatSeen }
func (ChatDelivered) Name() Name  { return NameChatDelivered }
func (r Rejected) Name() Name     { return r.Request }

func (Connected) isEvent()      {}
func (ChatsSynced) isEvent()    {}
func (MessageSent) isEvent()    {}
func (MessageEdited) isEvent()  {}
func (MessageRemoved) isEvent() {}
func (SeenAcked) isEvent()      {}
func (DeliveredAcked) isEvent() {}
func (MessageCreated) isEvent() {}
func (MessageUpdated) isEvent() {}
func (MessageDeleted) isEvent() {}
func (ChatSeen) isEvent()       {}
func (ChatDelivered) isEvent()  {}
func (Rejected) isEvent()       {}

// Reject builds the error answer to request from err.
func Reject(request Name, err error) Rejected {
	return Rejected{Request: request, Codes: errors.CodesOf(err)}
}
