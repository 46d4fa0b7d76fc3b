// Package moderation masks forbidden words in text that leaves the service
// outside of a live connection, such as push notification previews.
package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches a fixed dictionary with an Aho-Corasick automaton.
// Matching ignores case, punctuation, spacing and common leet substitutions,
// while masking keeps the original layout of the text.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
	// words maps a normalized pattern back to the dictionary entry.
	words map[string]string
	log   *slog.Logger
}

// NewModerator fails with errors.ErrEmptyWords when no entry survives
// normalization.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	words := make(map[string]string, len(censoredWords))
	var patterns [][]rune
	for _, word := range censoredWords {
		pattern := normalizeRunes([]rune(word))
		if len(pattern) == 0 {
			log.Debug("Censored word ignored, nothing left after normalization", "word", word)
			continue
		}
		if _, ok := words[string(pattern)]; ok {
			continue
		}
		words[string(pattern)] = word
		patterns = append(patterns, pattern)
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar, words: words, log: log}, nil
}

// Censor returns text with every match masked, and the dictionary entries
// that matched, in order of appearance. Nil when nothing matched.
func (m *Moderator) Censor(text string) (string, []string) {
	normalized, positions := normalize(text)
	if len(normalized) == 0 {
		return text, nil
	}
	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return text, nil
	}

	runes := []rune(text)
	var found []string
	for _, span := range spans {
		start, end := span.Pos, span.Pos+len(span.Word)
		if start < 0 || end > len(positions) {
			continue
		}
		for i := positions[start]; i <= positions[end-1]; i++ {
			runes[i] = m.censoredChar
		}
		found = append(found, m.words[string(span.Word)])
	}
	return string(runes), found
}

// normalize keeps the searchable runes of text and, for each of them, its
// index in the original rune slice.
func normalize(text string) ([]rune, []int) {
	runes := []rune(text)
	normalized := make([]rune, 0, len(runes))
	positions := make([]int, 0, len(runes))
	for i, r := range runes {
		if clean, ok := searchable(r); ok {
			normalized = append(normalized, clean)
			positions = append(positions, i)
		}
	}
	return normalized, positions
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if clean, ok := searchable(r); ok {
			out = append(out, clean)
		}
	}
	return out
}

func searchable(r rune) (rune, bool) {
	clean := unleet(r)
	if unicode.IsPunct(clean) || unicode.IsSpace(clean) || unicode.IsSymbol(clean) {
		return 0, false
	}
	return unicode.ToLower(clean), true
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
