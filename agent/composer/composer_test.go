package composer

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

func TestComposeDirectAnswerPassesThrough(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	got, err := c.Compose(context.Background(), "hi", contractx.Decision{Answer: "Hello there."}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got != "Hello there." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestComposeDirectEmptyAnswerGetsFallback(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	got, err := c.Compose(context.Background(), "hi", contractx.Decision{}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got == "" {
		t.Fatal("expected a non-empty fallback reply")
	}
}

func TestComposeFailureKindsStayDistinct(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	decision := contractx.Decision{ToolCall: &contractx.ToolCall{Name: "search_emails"}}

	kinds := []contractx.FailureKind{
		contractx.FailureInvalidArguments,
		contractx.FailureTimeout,
		contractx.FailureIntegration,
		contractx.FailureInternal,
	}

	seen := make(map[string]contractx.FailureKind, len(kinds))
	for _, kind := range kinds {
		reply, err := c.Compose(context.Background(), "check mail", decision, &contractx.ToolResult{
			Tool:    "search_emails",
			Kind:    kind,
			Message: "detail",
		})
		if err != nil {
			t.Fatalf("Compose(%s) error = %v", kind, err)
		}
		if reply == "" {
			t.Fatalf("empty reply for kind %s", kind)
		}
		if prev, dup := seen[reply]; dup {
			t.Fatalf("kinds %s and %s produced identical wording: %q", prev, kind, reply)
		}
		seen[reply] = kind
	}
}

func TestComposeEmptyResultDiffersFromTimeout(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	decision := contractx.Decision{ToolCall: &contractx.ToolCall{Name: "search_emails"}}

	empty, err := c.Compose(context.Background(), "check mail", decision, &contractx.ToolResult{
		Tool:    "search_emails",
		Payload: []contractx.EmailSummary{},
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	timeout, err := c.Compose(context.Background(), "check mail", decision, &contractx.ToolResult{
		Tool: "search_emails",
		Kind: contractx.FailureTimeout,
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if empty == timeout {
		t.Fatalf("empty result and timeout must read differently, both were %q", empty)
	}
	if !strings.Contains(empty, "no matching emails") {
		t.Fatalf("empty result should say nothing was found, got %q", empty)
	}
}

func TestComposeEmailSummariesKeepCount(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	decision := contractx.Decision{ToolCall: &contractx.ToolCall{Name: "search_emails"}}
	emails := make([]contractx.EmailSummary, 7)
	for i := range emails {
		emails[i] = contractx.EmailSummary{
			ID:      "id",
			Subject: "Subject " + string(rune('A'+i)),
			From:    "sender@example.com",
		}
	}

	reply, err := c.Compose(context.Background(), "check mail", decision, &contractx.ToolResult{
		Tool:    "search_emails",
		Payload: emails,
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(reply, "7") {
		t.Fatalf("reply should mention the total count, got %q", reply)
	}
	if !strings.Contains(reply, "Subject A") {
		t.Fatalf("reply should list leading subjects, got %q", reply)
	}
	if strings.Contains(reply, "Subject G") {
		t.Fatalf("reply should truncate the subject list, got %q", reply)
	}
}

func TestComposeSlotsAndEvent(t *testing.T) {
	t.Parallel()

	c := NewStatic()
	loc := time.UTC
	start := time.Date(2026, time.March, 12, 13, 0, 0, 0, loc)

	slotsReply, err := c.Compose(context.Background(), "find time",
		contractx.Decision{ToolCall: &contractx.ToolCall{Name: "find_free_slots"}},
		&contractx.ToolResult{
			Tool: "find_free_slots",
			Payload: []contractx.TimeSlot{
				{Start: start, End: start.Add(time.Hour)},
				{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
			},
		})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(slotsReply, "2") {
		t.Fatalf("slot reply should mention the count, got %q", slotsReply)
	}

	eventReply, err := c.Compose(context.Background(), "book it",
		contractx.Decision{ToolCall: &contractx.ToolCall{Name: "create_event"}},
		&contractx.ToolResult{
			Tool: "create_event",
			Payload: &contractx.EventDetails{
				Summary:  "Standup",
				Start:    start,
				End:      start.Add(time.Hour),
				HTMLLink: "https://calendar.example.com/event/1",
			},
		})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(eventReply, "Standup") || !strings.Contains(eventReply, "https://calendar.example.com/event/1") {
		t.Fatalf("event reply should confirm summary and link, got %q", eventReply)
	}
}

func TestComposeErrorWording(t *testing.T) {
	t.Parallel()

	c := NewStatic()

	unavailable := c.ComposeError(contractx.ErrPlannerUnavailable)
	malformed := c.ComposeError(contractx.ErrPlannerOutput)

	if unavailable == "" || malformed == "" {
		t.Fatal("error replies must not be empty")
	}
	if unavailable == malformed {
		t.Fatalf("planner error kinds must read differently, both were %q", unavailable)
	}
}
