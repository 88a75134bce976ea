package state

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// newIntegrationStore connects to the database named by TEST_POSTGRES_DSN,
// skipping when none is configured.
func newIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresStore(PostgresConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func TestPostgresStoreNoDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewPostgresStore(PostgresConfig{}); err == nil {
		t.Fatal("expected an error for a missing DSN")
	}
}

func TestPostgresStoreAppendTurnMovesUpdatedAt(t *testing.T) {
	t.Parallel()

	store := newIntegrationStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	conv := &Conversation{ID: uuid.NewString(), Title: "t", CreatedAt: created, UpdatedAt: created}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteConversation(ctx, conv.ID) })

	turn := &contractx.Turn{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Input:          "hi",
		FinalAnswer:    "hello",
		ToolCall:       &contractx.ToolCall{Name: "search_emails", Arguments: map[string]any{"days": float64(7)}},
	}
	if err := store.AppendTurn(ctx, turn); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if !got.UpdatedAt.After(created) {
		t.Fatalf("UpdatedAt was not advanced with the turn: %v", got.UpdatedAt)
	}

	turns, err := store.LoadTurns(ctx, conv.ID)
	if err != nil {
		t.Fatalf("LoadTurns() error = %v", err)
	}
	if len(turns) != 1 || turns[0].ToolCall == nil || turns[0].ToolCall.Name != "search_emails" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestPostgresStoreAppendTurnUnknownConversationLeavesNothing(t *testing.T) {
	t.Parallel()

	store := newIntegrationStore(t)
	ctx := context.Background()

	// No conversation row exists, so the touch updates zero rows but the
	// transaction itself must not leave a half-written state behind.
	id := uuid.NewString()
	turn := &contractx.Turn{ID: uuid.NewString(), ConversationID: id, Input: "hi"}
	if err := store.AppendTurn(ctx, turn); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteConversation(ctx, id) })

	if _, err := store.GetConversation(ctx, id); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}
