package orchestrator

import "sync"

// conversationLocks serializes turns per conversation id. Entries are
// reference counted and removed once the last holder releases, so the map
// does not grow with conversation count.
type conversationLocks struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{held: make(map[string]*lockEntry)}
}

// acquire blocks until the conversation lock is held and returns its release
// function.
func (l *conversationLocks) acquire(id string) func() {
	l.mu.Lock()
	entry, ok := l.held[id]
	if !ok {
		entry = &lockEntry{}
		l.held[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
