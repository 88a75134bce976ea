package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

func lookupExecutor(t *testing.T, name string) Executor {
	t.Helper()

	r, err := BuildRegistry(NewDemoMail(), NewDemoCalendar(time.UTC), time.UTC)
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	tool, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("%s not registered", name)
	}
	return tool.Execute
}

func TestFindFreeSlotsExecutor(t *testing.T) {
	t.Parallel()

	exec := lookupExecutor(t, ToolFindFreeSlots)

	payload, err := exec(context.Background(), map[string]any{
		"durationMinutes": float64(60),
		"rangeStart":      "2026-03-12",
		"rangeEnd":        "2026-03-13",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	slots, ok := payload.([]contractx.TimeSlot)
	if !ok {
		t.Fatalf("unexpected payload type %T", payload)
	}
	if len(slots) == 0 {
		t.Fatal("expected free slots for an open day")
	}
}

func TestFindFreeSlotsExecutorRejectsOversizedRange(t *testing.T) {
	t.Parallel()

	exec := lookupExecutor(t, ToolFindFreeSlots)

	done := make(chan error, 1)
	go func() {
		_, err := exec(context.Background(), map[string]any{
			"durationMinutes": float64(60),
			"rangeStart":      "2026-01-01",
			"rangeEnd":        "9999-01-01",
		})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("oversized range must be rejected without walking the range")
	}
}

func TestFindFreeSlotsExecutorRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	exec := lookupExecutor(t, ToolFindFreeSlots)

	_, err := exec(context.Background(), map[string]any{
		"durationMinutes": float64(60),
		"rangeStart":      "2026-03-13",
		"rangeEnd":        "2026-03-12",
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateEventExecutorRejectsBadWindow(t *testing.T) {
	t.Parallel()

	exec := lookupExecutor(t, ToolCreateEvent)

	_, err := exec(context.Background(), map[string]any{
		"summary": "standup",
		"start":   "2026-03-12T15:00",
		"end":     "2026-03-12T14:00",
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = exec(context.Background(), map[string]any{
		"summary": "  ",
		"start":   "2026-03-12T14:00",
		"end":     "2026-03-12T15:00",
	})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for blank summary, got %v", err)
	}
}

func TestDemoCalendarStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	cal := NewDemoCalendar(time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	_, err := cal.FreeSlots(ctx, SlotQuery{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, 30),
		Duration:   time.Hour,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
