package domain

import (
	"time"
)

type MessageType string

const (
	MessageText      MessageType = "TEXT"
	MessageImage     MessageType = "IMAGE"
	MessageImageText MessageType = "IMAGE_TEXT"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageImageText:
		return true
	default:
		return false
	}
}

// RequiresText is true for TEXT and IMAGE_TEXT.
func (t MessageType) RequiresText() bool {
	return t == MessageText || t == MessageImageText
}

// RequiresImage is true for IMAGE and IMAGE_TEXT.
func (t MessageType) RequiresImage() bool {
	return t == MessageImage || t == MessageImageText
}

// Image references a picture hosted elsewhere, by URL or by storage id.
type Image struct {
	URL        string `json:"imageUrl,omitempty"`
	FirebaseID string `json:"firebaseId,omitempty"`
}

func (i *Image) Empty() bool {
	return i == nil || (i.URL == "" && i.FirebaseID == "")
}

// Message belongs to exactly one chat, referenced by ChatID.
// Sender and chat never change after creation.
type Message struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	Type      MessageType `json:"type"`
	Text      string      `json:"message,omitempty"`
	Image     *Image      `json:"image,omitempty"`
	SenderID  string      `json:"sentBy"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Editable is false for IMAGE messages: their content is immutable.
func (m Message) Editable() bool {
	return m.Type != MessageImage
}
