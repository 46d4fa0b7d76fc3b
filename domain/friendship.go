package domain

import "time"

type FriendStatus string

const (
	FriendRequested FriendStatus = "REQUESTED"
	FriendAccepted  FriendStatus = "ACCEPTED"
	FriendDeclined  FriendStatus = "DECLINED"
)

// Friendship links an unordered pair of accounts.
type Friendship struct {
	AccountIDs  [2]string    `json:"accountIds"`
	RequestedBy string       `json:"requestedBy"`
	Status      FriendStatus `json:"status"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func NewFriendship(requestedBy, addressee string, status FriendStatus, at time.Time) Friendship {
	a, b := FriendPair(requestedBy, addressee)
	return Friendship{
		AccountIDs:  [2]string{a, b},
		RequestedBy: requestedBy,
		Status:      status,
		UpdatedAt:   at,
	}
}

func (f Friendship) Accepted() bool {
	return f.Status == FriendAccepted
}

// FriendPair orders two account ids so a pair has a single key.
func FriendPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
