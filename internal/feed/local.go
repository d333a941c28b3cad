package feed

import (
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// localIDPrefix distinguishes ephemeral ids from server-generated keys so a
// collision between the two origins is impossible within one merged view.
const localIDPrefix = "local-"

// LocalStore holds snapshot notifications for the lifetime of the current
// process only. It is pure in-memory mutation and cannot fail.
type LocalStore struct {
	mu    sync.RWMutex
	items []NotificationItem
	index map[string]int
}

// NewLocalStore creates an empty ephemeral store.
func NewLocalStore() *LocalStore {
	return &LocalStore{index: make(map[string]int)}
}

// Add creates a snapshot item with a locally unique, time-sortable id and
// returns it immediately.
func (s *LocalStore) Add(snapshot Snapshot) NotificationItem {
	item := NotificationItem{
		ID:        localIDPrefix + ulid.Make().String(),
		Type:      TypeSnapshot,
		Timestamp: time.Now().UTC(),
		Payload:   Payload{Snapshot: &snapshot},
		Read:      false,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	return item
}

// MarkRead sets read=true on the matching local item, reporting whether a
// match was found. The flag never reverts.
func (s *LocalStore) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.items[i].Read = true
	return true
}

// Contains reports whether the id belongs to this store. Used by the merge
// engine for its lookup-then-dispatch on mark-read, since remote and local
// ids are otherwise not distinguishable by the caller.
func (s *LocalStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// List returns a copy of the current contents. Ordering is imposed later by
// the merge step, not here.
func (s *LocalStore) List() []NotificationItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NotificationItem, len(s.items))
	copy(out, s.items)
	return out
}

// IsLocalID reports whether an id has the ephemeral prefix. Only used for
// logging; dispatch relies on Contains.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
