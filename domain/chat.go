// Package domain contains core concepts of the chat system.
// This file defines Chat entities and their seen/delivered invariants.
// No runtime, network, or transport logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChatKind string

const (
	ChatDirect ChatKind = "DIRECT"
	ChatGroup  ChatKind = "GROUP"
)

// Chat is a conversation between at least two accounts.
// SeenBy and DeliveredTo are chat-scoped and always subsets of Participants.
// They describe the latest message only.
type Chat struct {
	ID           string    `json:"id"`
	Kind         ChatKind  `json:"type"`
	Name         string    `json:"name,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Participants Set       `json:"participants"`
	SeenBy       Set       `json:"seen"`
	DeliveredTo  Set       `json:"delivered"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewDirectChat builds the fixed two-party chat opened between friends.
func NewDirectChat(accountID, friendID string, at time.Time) Chat {
	return Chat{
		ID:           uuid.NewString(),
		Kind:         ChatDirect,
		Participants: NewSet(accountID, friendID),
		SeenBy:       NewSet(),
		DeliveredTo:  NewSet(),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func NewGroupChat(name, imageURL string, participants []string, at time.Time) Chat {
	return Chat{
		ID:           uuid.NewString(),
		Kind:         ChatGroup,
		Name:         name,
		ImageURL:     imageURL,
		Participants: NewSet(participants...),
		SeenBy:       NewSet(),
		DeliveredTo:  NewSet(),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func (c Chat) IsGroup() bool { return c.Kind == ChatGroup }

func (c Chat) HasParticipant(accountID string) bool {
	return c.Participants.Has(accountID)
}

// Others lists every participant except accountID, in ascending order.
func (c Chat) Others(accountID string) []string {
	return lo.Without(c.Participants.Values(), accountID)
}

// ResetForMessage applies a new message from sender: only the sender has seen
// it and, until recipients are reached, only the sender has it.
func (c *Chat) ResetForMessage(sender string) {
	c.SeenBy = NewSet(sender)
	c.DeliveredTo = NewSet(sender)
}

// MarkSeen reports whether the seen set changed.
func (c *Chat) MarkSeen(accountID string) bool {
	if !c.HasParticipant(accountID) {
		return false
	}
	if c.SeenBy == nil {
		c.SeenBy = NewSet()
	}
	return c.SeenBy.Add(accountID)
}

// MarkDelivered reports whether the delivered set changed.
func (c *Chat) MarkDelivered(accountID string) bool {
	if !c.HasParticipant(accountID) {
		return false
	}
	if c.DeliveredTo == nil {
		c.DeliveredTo = NewSet()
	}
	return c.DeliveredTo.Add(accountID)
}

// ReplaceParticipants swaps the whole participant set and prunes seen and
// delivered so they stay subsets of it.
func (c *Chat) ReplaceParticipants(ids []string) {
	c.Participants = NewSet(ids...)
	c.SeenBy = c.SeenBy.Intersect(c.Participants)
	c.DeliveredTo = c.DeliveredTo.Intersect(c.Participants)
}

// Clone deep-copies the sets so callers can mutate without aliasing.
func (c Chat) Clone() Chat {
	c.Participants = c.Participants.Clone()
	c.SeenBy = c.SeenBy.Clone()
	c.DeliveredTo = c.DeliveredTo.Clone()
	return c
}
