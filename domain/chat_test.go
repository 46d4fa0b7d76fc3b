package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChat_Reset_For_Message(t *testing.T) {
	req := require.New(t)

	// Given a group where everyone has seen the previous message
	chat := NewGroupChat("hike", "", []string{"a", "b", "c"}, time.Now())
	chat.SeenBy = NewSet("a", "b", "c")
	chat.DeliveredTo = NewSet("a", "b", "c")

	// When b sends a new message
	chat.ResetForMessage("b")

	// Then only b has it
	req.Equal([]string{"b"}, chat.SeenBy.Values())
	req.Equal([]string{"b"}, chat.DeliveredTo.Values())
}

func TestChat_Mark_Seen_And_Delivered(t *testing.T) {
	req := require.New(t)
	chat := NewDirectChat("a", "b", time.Now())

	req.True(chat.MarkSeen("a"))
	req.False(chat.MarkSeen("a"), "second mark is a no-op")
	req.False(chat.MarkSeen("stranger"), "outsiders never enter the set")
	req.True(chat.MarkDelivered("b"))
	req.False(chat.MarkDelivered("b"))
	req.False(chat.MarkDelivered("stranger"))

	req.Equal([]string{"a"}, chat.SeenBy.Values())
	req.Equal([]string{"b"}, chat.DeliveredTo.Values())
}

func TestChat_Replace_Participants_Prunes_Sets(t *testing.T) {
	req := require.New(t)
	chat := NewGroupChat("hike", "", []string{"a", "b", "c"}, time.Now())
	chat.SeenBy = NewSet("a", "c")
	chat.DeliveredTo = NewSet("a", "b", "c")

	chat.ReplaceParticipants([]string{"a", "b", "d"})

	req.Equal([]string{"a", "b", "d"}, chat.Participants.Values())
	req.Equal([]string{"a"}, chat.SeenBy.Values())
	req.Equal([]string{"a", "b"}, chat.DeliveredTo.Values())
}

func TestChat_Others(t *testing.T) {
	req := require.New(t)
	chat := NewGroupChat("hike", "", []string{"c", "a", "b"}, time.Now())

	req.Equal([]string{"a", "c"}, chat.Others("b"))
	req.Equal([]string{"a", "b", "c"}, chat.Others("z"))
}

func TestChat_Clone_Does_Not_Alias(t *testing.T) {
	req := require.New(t)
	chat := NewDirectChat("a", "b", time.Now())

	clone := chat.Clone()
	clone.MarkSeen("a")

	req.Zero(chat.SeenBy.Len())
	req.Equal(1, clone.SeenBy.Len())
}

func TestSet_JSON_Is_Sorted_Array(t *testing.T) {
	req := require.New(t)

	raw, err := json.Marshal(NewSet("c", "a", "b"))
	req.NoError(err)
	req.JSONEq(`["a","b","c"]`, string(raw))

	var decoded Set
	req.NoError(json.Unmarshal([]byte(`["b","a","b"]`), &decoded))
	req.True(decoded.Equal(NewSet("a", "b")))
}

func TestSet_Intersect(t *testing.T) {
	req := require.New(t)

	req.Equal([]string{"b"}, NewSet("a", "b").Intersect(NewSet("b", "c")).Values())
	req.Zero(Set(nil).Intersect(NewSet("a")).Len())
}

func TestFriendship_Pair_Is_Ordered(t *testing.T) {
	req := require.New(t)

	f := NewFriendship("zoe", "adam", FriendAccepted, time.Now())
	req.Equal([2]string{"adam", "zoe"}, f.AccountIDs)
	req.Equal("zoe", f.RequestedBy)
	req.True(f.Accepted())
}
