package repositories

import (
	"chat-relay/domain"
	"time"
)

// Records are the on-disk shapes. Times are stored as UTC unix nanoseconds.

type ChatRecord struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Name         string   `json:"name,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	Participants []string `json:"participants"`
	SeenBy       []string `json:"seen_by"`
	DeliveredTo  []string `json:"delivered_to"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

type MessageRecord struct {
	ID              string `json:"id"`
	ChatID          string `json:"chat_id"`
	Type            string `json:"type"`
	Text            string `json:"text,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	ImageFirebaseID string `json:"image_firebase_id,omitempty"`
	SenderID        string `json:"sender_id"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

func fromChat(chat domain.Chat) ChatRecord {
	return ChatRecord{
		ID:           chat.ID,
		Kind:         string(chat.Kind),
		Name:         chat.Name,
		ImageURL:     chat.ImageURL,
		Participants: chat.Participants.Values(),
		SeenBy:       chat.SeenBy.Values(),
		DeliveredTo:  chat.DeliveredTo.Values(),
		CreatedAt:    chat.CreatedAt.UnixNano(),
		UpdatedAt:    chat.UpdatedAt.UnixNano(),
	}
}

func toChat(record ChatRecord) domain.Chat {
	return domain.Chat{
		ID:           record.ID,
		Kind:         domain.ChatKind(record.Kind),
		Name:         record.Name,
		ImageURL:     record.ImageURL,
		Participants: domain.NewSet(record.Participants...),
		SeenBy:       domain.NewSet(record.SeenBy...),
		DeliveredTo:  domain.NewSet(record.DeliveredTo...),
		CreatedAt:    time.Unix(0, record.CreatedAt).UTC(),
		UpdatedAt:    time.Unix(0, record.UpdatedAt).UTC(),
	}
}

func fromMessage(message domain.Message) MessageRecord {
	record := MessageRecord{
		ID:        message.ID,
		ChatID:    message.ChatID,
		Type:      string(message.Type),
		Text:      message.Text,
		SenderID:  message.SenderID,
		CreatedAt: message.CreatedAt.UnixNano(),
		UpdatedAt: message.UpdatedAt.UnixNano(),
	}
	if message.Image != nil {
		record.ImageURL = message.Image.URL
		record.ImageFirebaseID = message.Image.FirebaseID
	}
	return record
}

func toMessage(record MessageRecord) domain.Message {
	message := domain.Message{
		ID:        record.ID,
		ChatID:    record.ChatID,
		Type:      domain.MessageType(record.Type),
		Text:      record.Text,
		SenderID:  record.SenderID,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, record.UpdatedAt).UTC(),
	}
	if record.ImageURL != "" || record.ImageFirebaseID != "" {
		message.Image = &domain.Image{URL: record.ImageURL, FirebaseID: record.ImageFirebaseID}
	}
	return message
}
