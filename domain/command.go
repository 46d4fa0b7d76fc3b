package domain

// SendMessageCommand carries a validated create-message payload.
type SendMessageCommand struct {
	ChatID string
	Type   MessageType
	Text   string
	Image  *Image
}

type UpdateMessageCommand struct {
	MessageID string
	Text      string
}

type CreateGroupCommand struct {
	Participants []string
	Name         string
	ImageURL     string
}

type UpdateGroupCommand struct {
	ChatID       string
	Participants []string
	Name         string
	ImageURL     string
}
