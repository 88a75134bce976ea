package tool

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// Demo gateways return canned data so the whole engine runs without Google
// credentials. Enabled via DEMO_MODE.

type DemoMail struct {
	now func() time.Time
}

var _ MailGateway = (*DemoMail)(nil)

func NewDemoMail() *DemoMail {
	return &DemoMail{now: time.Now}
}

func (d *DemoMail) SearchRecent(ctx context.Context, q MailQuery) ([]contractx.EmailSummary, error) {
	now := d.now().UTC()
	type fixture struct {
		age   time.Duration
		email contractx.EmailSummary
	}
	fixtures := []fixture{
		{26 * time.Hour, contractx.EmailSummary{
			ID:      "demo-1",
			Subject: "Quarterly planning review",
			From:    "Deniz Kaya <deniz@example.com>",
			Snippet: "Sharing the agenda for Thursday's planning review...",
		}},
		{3 * 24 * time.Hour, contractx.EmailSummary{
			ID:      "demo-2",
			Subject: "Invoice #4821 due next week",
			From:    "billing@example.com",
			Snippet: "Your invoice is due on the 15th. Please confirm payment...",
		}},
		{5 * 24 * time.Hour, contractx.EmailSummary{
			ID:      "demo-3",
			Subject: "Design review notes",
			From:    "Mert Aydin <mert@example.com>",
			Snippet: "Attached are the notes and action items from today's review...",
		}},
	}

	cutoff := now.AddDate(0, 0, -q.Days)
	out := make([]contractx.EmailSummary, 0, len(fixtures))
	for _, f := range fixtures {
		received := now.Add(-f.age)
		if received.Before(cutoff) {
			continue
		}
		email := f.email
		email.Date = received.Format(time.RFC1123Z)
		out = append(out, email)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

type DemoCalendar struct {
	loc *time.Location
	now func() time.Time
}

var _ CalendarGateway = (*DemoCalendar)(nil)

func NewDemoCalendar(loc *time.Location) *DemoCalendar {
	if loc == nil {
		loc = time.Local
	}
	return &DemoCalendar{loc: loc, now: time.Now}
}

func (d *DemoCalendar) FreeSlots(ctx context.Context, q SlotQuery) ([]contractx.TimeSlot, error) {
	// One standing busy block per day keeps the demo output realistic.
	var busy []contractx.TimeSlot
	day := q.RangeStart.In(d.loc)
	for !day.After(q.RangeEnd) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		busyStart := time.Date(day.Year(), day.Month(), day.Day(), 14, 0, 0, 0, d.loc)
		busy = append(busy, contractx.TimeSlot{Start: busyStart, End: busyStart.Add(time.Hour)})
		day = day.AddDate(0, 0, 1)
	}
	return CarveSlots(q.RangeStart, q.RangeEnd, busy, q.Duration, d.loc), nil
}

func (d *DemoCalendar) CreateEvent(ctx context.Context, req EventRequest) (*contractx.EventDetails, error) {
	return &contractx.EventDetails{
		Summary:  req.Summary,
		Start:    req.Start,
		End:      req.End,
		HTMLLink: fmt.Sprintf("https://calendar.example.com/event/demo-%d", req.Start.Unix()),
	}, nil
}
