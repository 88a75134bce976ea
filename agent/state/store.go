package state

import (
	"context"
	"errors"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidConversation  = errors.New("conversation id is empty")
	ErrNilTurn              = errors.New("turn is nil")
)

const titleMaxLen = 80

// Conversation is the append-only history head. Turns hang off it keyed by
// ConversationID and are ordered by creation time.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence contract used by the orchestrator and the
// conversation read/delete endpoints. Turns are immutable once appended.
type Store interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// LoadTurns returns the ordered turn log for one conversation.
	LoadTurns(ctx context.Context, conversationID string) ([]contractx.Turn, error)

	// AppendTurn appends one turn and touches the conversation's UpdatedAt.
	AppendTurn(ctx context.Context, turn *contractx.Turn) error
}

// TitleFor derives a conversation title from its first input. Truncation
// counts runes, not bytes, so multi-byte input is never cut mid-character.
func TitleFor(input string) string {
	runes := []rune(input)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen])
	}
	return input
}
