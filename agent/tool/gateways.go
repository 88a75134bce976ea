package tool

import (
	"context"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// MailQuery selects recent mail. Days counts back from now; Limit caps the
// result size.
type MailQuery struct {
	Days          int
	Limit         int
	ImportantOnly bool
}

// SlotQuery asks for free blocks of at least Duration inside the range.
type SlotQuery struct {
	RangeStart time.Time
	RangeEnd   time.Time
	Duration   time.Duration
	TopK       int
}

// EventRequest creates one calendar event on the primary calendar.
type EventRequest struct {
	Summary  string
	Start    time.Time
	End      time.Time
	TimeZone string
}

// MailGateway is the narrow capability contract for the mail integration.
// Concrete clients (Gmail, demo fixtures) live behind it.
type MailGateway interface {
	SearchRecent(ctx context.Context, q MailQuery) ([]contractx.EmailSummary, error)
}

// CalendarGateway is the narrow capability contract for the calendar
// integration.
type CalendarGateway interface {
	FreeSlots(ctx context.Context, q SlotQuery) ([]contractx.TimeSlot, error)
	CreateEvent(ctx context.Context, req EventRequest) (*contractx.EventDetails, error)
}
