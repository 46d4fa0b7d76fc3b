package services

import (
	"chat-relay/domain"
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// ChatLocks serializes every read-modify-write of a chat record. Keys hash
// onto a fixed set of mutexes, so two chats may share a stripe but one chat
// always maps to the same one. The mutexes are not reentrant: a holder must
// not take a second key.
type ChatLocks struct {
	stripes [lockStripes]sync.Mutex
}

// NewChatLocks builds the locks shared by ChatService and DeliveryService.
func NewChatLocks() *ChatLocks {
	return &ChatLocks{}
}

func (l *ChatLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// lockPair guards the find-or-create of the direct chat between two accounts.
func (l *ChatLocks) lockPair(a, b string) func() {
	a, b = domain.FriendPair(a, b)
	return l.lock("direct:" + a + ":" + b)
}
