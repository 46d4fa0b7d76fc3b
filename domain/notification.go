package domain

import "fmt"

const (
	ImageMarker      = "📷"
	ImageBody        = "Image"
	DefaultPushTitle = "New Message"
)

type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// NewMessageNotification previews m for a recipient who is offline.
func NewMessageNotification(senderName string, m Message) Notification {
	title := senderName
	if title == "" {
		title = DefaultPushTitle
	}
	return Notification{
		Title: title,
		Body:  NotificationBody(m),
		Data: map[string]string{
			"chatId":    m.ChatID,
			"messageId": m.ID,
			"type":      string(m.Type),
		},
	}
}

func NotificationBody(m Message) string {
	switch m.Type {
	case MessageImage:
		return ImageBody
	case MessageImageText:
		return fmt.Sprintf("%s %s", ImageMarker, m.Text)
	case MessageText:
		return m.Text
	default:
		return DefaultPushTitle
	}
}

const PriorityHigh = "high"

// PushJob is a notification addressed to one registered device.
type PushJob struct {
	AccountID    string       `json:"accountId"`
	Token        string       `json:"token"`
	Priority     string       `json:"priority"`
	Notification Notification `json:"notification"`
}
