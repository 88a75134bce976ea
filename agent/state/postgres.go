package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type turnRow struct {
	bun.BaseModel `bun:"table:turns,alias:t"`

	ID             string    `bun:"id,pk"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Input          string    `bun:"input,notnull"`
	ToolCall       []byte    `bun:"tool_call,type:jsonb,nullzero"`
	ToolResult     []byte    `bun:"tool_result,type:jsonb,nullzero"`
	FinalAnswer    string    `bun:"final_answer"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// PostgresStore persists conversations in PostgreSQL via bun.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{db: db}, nil
}

// Migrate creates the conversation tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*conversationRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*turnRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create turns table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv == nil || strings.TrimSpace(conv.ID) == "" {
		return ErrInvalidConversation
	}

	now := time.Now().UTC()
	row := &conversationRow{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidConversation
	}

	row := new(conversationRow)
	err := s.db.NewSelect().Model(row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}

	return &Conversation{
		ID:        row.ID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	var rows []conversationRow
	if err := s.db.NewSelect().
		Model(&rows).
		Order("updated_at DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	out := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, Conversation{
			ID:        row.ID,
			Title:     row.Title,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidConversation
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*turnRow)(nil)).
			Where("conversation_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete turns: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*conversationRow)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) LoadTurns(ctx context.Context, conversationID string) ([]contractx.Turn, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidConversation
	}

	var rows []turnRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	turns := make([]contractx.Turn, 0, len(rows))
	for _, row := range rows {
		turn, err := row.toTurn()
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, turn *contractx.Turn) error {
	if turn == nil {
		return ErrNilTurn
	}
	if strings.TrimSpace(turn.ConversationID) == "" {
		return ErrInvalidConversation
	}

	row, err := toTurnRow(turn)
	if err != nil {
		return err
	}

	// One transaction: a turn must never land without its conversation's
	// ordering timestamp moving with it.
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		if _, err := tx.NewUpdate().
			Model((*conversationRow)(nil)).
			Set("updated_at = ?", row.CreatedAt).
			Where("id = ?", turn.ConversationID).
			Exec(ctx); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
}

func toTurnRow(turn *contractx.Turn) (*turnRow, error) {
	row := &turnRow{
		ID:             turn.ID,
		ConversationID: turn.ConversationID,
		Input:          turn.Input,
		FinalAnswer:    turn.FinalAnswer,
		CreatedAt:      turn.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	if turn.ToolCall != nil {
		payload, err := json.Marshal(turn.ToolCall)
		if err != nil {
			return nil, fmt.Errorf("marshal tool call: %w", err)
		}
		row.ToolCall = payload
	}
	if turn.ToolResult != nil {
		payload, err := json.Marshal(turn.ToolResult)
		if err != nil {
			return nil, fmt.Errorf("marshal tool result: %w", err)
		}
		row.ToolResult = payload
	}
	return row, nil
}

func (row turnRow) toTurn() (contractx.Turn, error) {
	turn := contractx.Turn{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Input:          row.Input,
		FinalAnswer:    row.FinalAnswer,
		CreatedAt:      row.CreatedAt,
	}

	if len(row.ToolCall) > 0 {
		call := new(contractx.ToolCall)
		if err := json.Unmarshal(row.ToolCall, call); err != nil {
			return contractx.Turn{}, fmt.Errorf("unmarshal tool call: %w", err)
		}
		turn.ToolCall = call
	}
	if len(row.ToolResult) > 0 {
		result := new(contractx.ToolResult)
		if err := json.Unmarshal(row.ToolResult, result); err != nil {
			return contractx.Turn{}, fmt.Errorf("unmarshal tool result: %w", err)
		}
		turn.ToolResult = result
	}
	return turn, nil
}
