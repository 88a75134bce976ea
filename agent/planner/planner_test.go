package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

type fakeChatModel struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return schema.AssistantMessage(f.replies[idx], nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func newTestPlanner(t *testing.T, chat *fakeChatModel) *Planner {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	registry, err := toolx.BuildRegistry(toolx.NewDemoMail(), toolx.NewDemoCalendar(loc), loc)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	p, err := New(context.Background(), chat, registry, loc, "You are a planner.")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestDecideToolCall(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{replies: []string{
		`{"tool":"search_emails","args":{"days":3,"importantOnly":true},"reason":"user asked for recent important mail"}`,
	}}
	p := newTestPlanner(t, chat)

	d, err := p.Decide(context.Background(), contractx.PlannerRequest{
		Input: "any important emails in the last 3 days?",
		Now:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.IsDirect() {
		t.Fatal("expected a tool call decision")
	}
	if d.ToolCall.Name != "search_emails" {
		t.Fatalf("unexpected tool: %q", d.ToolCall.Name)
	}
	if d.ToolCall.Arguments["importantOnly"] != true {
		t.Fatalf("unexpected args: %v", d.ToolCall.Arguments)
	}
	if d.Raw == "" {
		t.Fatal("expected raw output to be preserved")
	}
}

func TestDecideDirectAnswer(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{replies: []string{
		`{"tool":"none","args":{},"reason":"greeting","answer":"Hello! How can I help?"}`,
	}}
	p := newTestPlanner(t, chat)

	d, err := p.Decide(context.Background(), contractx.PlannerRequest{Input: "hi", Now: time.Now()})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if !d.IsDirect() {
		t.Fatal("expected a direct decision")
	}
	if d.Answer != "Hello! How can I help?" {
		t.Fatalf("unexpected answer: %q", d.Answer)
	}
}

func TestDecideModelDown(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{err: errors.New("connection refused")}
	p := newTestPlanner(t, chat)

	_, err := p.Decide(context.Background(), contractx.PlannerRequest{Input: "hi", Now: time.Now()})
	if !errors.Is(err, contractx.ErrPlannerUnavailable) {
		t.Fatalf("expected ErrPlannerUnavailable, got %v", err)
	}
}

func TestDecideRetriesOnceThenFails(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{replies: []string{"no json here", "still no json"}}
	p := newTestPlanner(t, chat)

	_, err := p.Decide(context.Background(), contractx.PlannerRequest{Input: "hi", Now: time.Now()})
	if !errors.Is(err, contractx.ErrPlannerOutput) {
		t.Fatalf("expected ErrPlannerOutput, got %v", err)
	}
	if chat.calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", chat.calls)
	}
}

func TestDecideRetryRecovers(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{replies: []string{
		"sorry, let me think",
		`{"tool":"none","args":{},"reason":"smalltalk","answer":"Hi!"}`,
	}}
	p := newTestPlanner(t, chat)

	d, err := p.Decide(context.Background(), contractx.PlannerRequest{Input: "hi", Now: time.Now()})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Answer != "Hi!" {
		t.Fatalf("unexpected answer: %q", d.Answer)
	}
}

func TestDecideUnknownTool(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{replies: []string{
		`{"tool":"send_email","args":{},"reason":"user wants to reply"}`,
	}}
	p := newTestPlanner(t, chat)

	_, err := p.Decide(context.Background(), contractx.PlannerRequest{Input: "reply to Ali", Now: time.Now()})
	if !errors.Is(err, contractx.ErrPlannerOutput) {
		t.Fatalf("expected ErrPlannerOutput, got %v", err)
	}
}
