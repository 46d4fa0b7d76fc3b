package moderation

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newModerator(t *testing.T, words []string, censoredChar rune) *Moderator {
	t.Helper()
	mod, err := NewModerator(words, censoredChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return mod
}

// Previews are built the way a push notification body is, so image markers
// and captions go through the same path.
func TestModerator_Censor_Notification_Previews(t *testing.T) {
	mod := newModerator(t, []string{"spam", "scam", "troll"}, '*')

	tests := []struct {
		name     string
		message  domain.Message
		expected string
		words    []string
	}{
		{
			name:     "text preview",
			message:  domain.Message{Type: domain.MessageText, Text: "free spam here"},
			expected: "free **** here",
			words:    []string{"spam"},
		},
		{
			name:     "image caption keeps its marker",
			message:  domain.Message{Type: domain.MessageImageText, Text: "sc4m inside"},
			expected: "📷 **** inside",
			words:    []string{"scam"},
		},
		{
			name:     "bare image",
			message:  domain.Message{Type: domain.MessageImage},
			expected: domain.ImageBody,
		},
		{
			name:     "spelled out with leet",
			message:  domain.Message{Type: domain.MessageText, Text: "you T.R.0.L.L"},
			expected: "you *********",
			words:    []string{"troll"},
		},
		{
			name:     "every occurrence in order",
			message:  domain.Message{Type: domain.MessageText, Text: "SPAM, then scam"},
			expected: "****, then ****",
			words:    []string{"spam", "scam"},
		},
		{
			name:     "accents around a match stay",
			message:  domain.Message{Type: domain.MessageText, Text: "été sans spam"},
			expected: "été sans ****",
			words:    []string{"spam"},
		},
		{
			name:     "clean preview",
			message:  domain.Message{Type: domain.MessageText, Text: "see you at the crag"},
			expected: "see you at the crag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			body, words := mod.Censor(domain.NotificationBody(tt.message))
			req.Equal(tt.expected, body)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_Censor_Reports_Dictionary_Entries(t *testing.T) {
	req := require.New(t)

	// Given variants that collapse onto one pattern
	mod := newModerator(t, []string{"Spam", "spam", "sp4m"}, '#')

	// When a preview matches it
	body, words := mod.Censor("📷 a $pam")

	// Then the first entry as written is reported, and the custom char masks it
	req.Equal("📷 a ####", body)
	req.Equal([]string{"Spam"}, words)
}

func TestModerator_Noise_Entries_Are_Ignored(t *testing.T) {
	req := require.New(t)

	// Given a dictionary polluted with punctuation-only entries
	mod := newModerator(t, []string{"...", ",,,", "", "scam"}, '*')

	// Then real punctuation in a preview is never masked
	body, words := mod.Censor("Alice: ... scam?")
	req.Equal("Alice: ... ****?", body)
	req.Equal([]string{"scam"}, words)
	body, words = mod.Censor("...")
	req.Equal("...", body)
	req.Nil(words)
}

func TestModerator_Only_Noise_Is_Rejected(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator([]string{"...", " ", ""}, '*', logs.GetLoggerFromLevel(slog.LevelDebug))

	req.ErrorIs(err, errors.ErrEmptyWords)
}
