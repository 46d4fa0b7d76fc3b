package repositories

import (
	"chat-relay/domain"
	"fmt"
	"strings"
)

// Describe renders a raw Badger entry for the inspection tools.
// Unknown or undecodable values fall back to their raw text.
func Describe(key string, value []byte) (kind, detail string) {
	switch {
	case strings.HasPrefix(key, ChatPrefix):
		var record ChatRecord
		if err := jsonUnmarshal(value, &record); err != nil {
			return "CHAT", "unmarshal failed"
		}
		title := record.Name
		if title == "" {
			title = strings.Join(record.Participants, ",")
		}
		return "CHAT", fmt.Sprintf("%s %s seen=%d delivered=%d/%d",
			record.Kind, title, len(record.SeenBy), len(record.DeliveredTo), len(record.Participants))
	case strings.HasPrefix(key, MessagePrefix):
		var record MessageRecord
		if err := jsonUnmarshal(value, &record); err != nil {
			return "MESSAGE", "unmarshal failed"
		}
		text := record.Text
		if record.ImageURL != "" {
			text = strings.TrimSpace(text + " [" + record.ImageURL + "]")
		}
		return "MESSAGE", fmt.Sprintf("%s %s: %s", record.Type, record.SenderID, text)
	case strings.HasPrefix(key, AccountPrefix):
		var record AccountRecord
		if err := jsonUnmarshal(value, &record); err != nil {
			return "ACCOUNT", "unmarshal failed"
		}
		return "ACCOUNT", record.DisplayName
	case strings.HasPrefix(key, TokenPrefix):
		var token domain.DeviceToken
		if err := jsonUnmarshal(value, &token); err != nil {
			return "TOKEN", "unmarshal failed"
		}
		return "TOKEN", token.Token
	case strings.HasPrefix(key, FriendshipPrefix):
		var friendship domain.Friendship
		if err := jsonUnmarshal(value, &friendship); err != nil {
			return "FRIENDSHIP", "unmarshal failed"
		}
		return "FRIENDSHIP", fmt.Sprintf("%s requested by %s", friendship.Status, friendship.RequestedBy)
	case strings.HasPrefix(key, "idx:"):
		return "INDEX", string(value)
	default:
		return "RAW", string(value)
	}
}
