package runtime

import (
	"chat-relay/contract"
	"sync"

	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the presence authority: it maps an account to its single live
// connection. Sinks are used as map keys and must be comparable (pointers).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // account -> sink
	owners   map[contract.EventSink]string // sink -> account
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		owners:   make(map[contract.EventSink]string),
	}
}

// Connect registers sink as the live connection of accountID.
// An existing entry is replaced and its sink forgotten without notice, so
// exactly one entry survives any burst of reconnects.
func (r *Registry) Connect(accountID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.sessions[accountID]; ok && previous != sink {
		delete(r.owners, previous)
	}
	// The same connection authenticating as someone else drops its old identity.
	if owner, ok := r.owners[sink]; ok && owner != accountID {
		delete(r.sessions, owner)
	}
	r.sessions[accountID] = sink
	r.owners[sink] = accountID
}

// Disconnect removes the entry held by sink. A sink that was superseded or
// never registered is ignored.
func (r *Registry) Disconnect(sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accountID, ok := r.owners[sink]
	if !ok {
		return
	}
	delete(r.owners, sink)
	if r.sessions[accountID] == sink {
		delete(r.sessions, accountID)
	}
}

func (r *Registry) Lookup(accountID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[accountID]
	return sink, ok
}

// Online keeps the ids that currently have a live connection.
func (r *Registry) Online(accountIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Filter(accountIDs, func(id string, _ int) bool {
		_, ok := r.sessions[id]
		return ok
	})
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
