package state

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// MemoryStore keeps conversations in process memory. Used for local runs
// without a database and as the store double in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	turns         map[string][]contractx.Turn
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*Conversation),
		turns:         make(map[string][]contractx.Turn),
	}
}

func (m *MemoryStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv == nil || strings.TrimSpace(conv.ID) == "" {
		return ErrInvalidConversation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	clone := *conv
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = clone.CreatedAt
	}
	m.conversations[clone.ID] = &clone
	return nil
}

func (m *MemoryStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidConversation
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	clone := *conv
	return &clone, nil
}

func (m *MemoryStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Conversation, 0, len(m.conversations))
	for _, conv := range m.conversations {
		out = append(out, *conv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidConversation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.conversations, id)
	delete(m.turns, id)
	return nil
}

func (m *MemoryStore) LoadTurns(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidConversation
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.conversations[conversationID]; !ok {
		return nil, ErrConversationNotFound
	}
	return append([]contractx.Turn(nil), m.turns[conversationID]...), nil
}

func (m *MemoryStore) AppendTurn(ctx context.Context, turn *contractx.Turn) error {
	if turn == nil {
		return ErrNilTurn
	}
	if strings.TrimSpace(turn.ConversationID) == "" {
		return ErrInvalidConversation
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[turn.ConversationID]
	if !ok {
		return ErrConversationNotFound
	}

	clone := *turn
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	m.turns[turn.ConversationID] = append(m.turns[turn.ConversationID], clone)
	conv.UpdatedAt = clone.CreatedAt
	return nil
}
