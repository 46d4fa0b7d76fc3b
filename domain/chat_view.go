package domain

import "time"

// ChatView is the read model returned on sync: a chat with its participants'
// accounts and its message history. Messages never point back to the view.
type ChatView struct {
	ID           string    `json:"id"`
	Kind         ChatKind  `json:"type"`
	Name         string    `json:"name,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Participants []Account `json:"participants"`
	SeenBy       []string  `json:"seen"`
	DeliveredTo  []string  `json:"delivered"`
	Messages     []Message `json:"messages"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewChatView(chat Chat, accounts []Account, messages []Message) ChatView {
	if messages == nil {
		messages = []Message{}
	}
	return ChatView{
		ID:           chat.ID,
		Kind:         chat.Kind,
		Name:         chat.Name,
		ImageURL:     chat.ImageURL,
		Participants: accounts,
		SeenBy:       chat.SeenBy.Values(),
		DeliveredTo:  chat.DeliveredTo.Values(),
		Messages:     messages,
		UpdatedAt:    chat.UpdatedAt,
	}
}
