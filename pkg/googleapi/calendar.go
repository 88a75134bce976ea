package googleapi

import (
	"context"
	"fmt"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

// Calendar implements the calendar gateway on the Google Calendar API
// against the primary calendar.
type Calendar struct {
	auth *Authenticator
	loc  *time.Location
}

var _ toolx.CalendarGateway = (*Calendar)(nil)

func NewCalendar(auth *Authenticator, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{auth: auth, loc: loc}
}

func (c *Calendar) service(ctx context.Context) (*calendarapi.Service, error) {
	ts, err := c.auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return svc, nil
}

// FreeSlots queries busy blocks over the range and carves the open time
// around them into slots of the requested duration.
func (c *Calendar) FreeSlots(ctx context.Context, q toolx.SlotQuery) ([]contractx.TimeSlot, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendarapi.FreeBusyRequest{
		TimeMin:  q.RangeStart.Format(time.RFC3339),
		TimeMax:  q.RangeEnd.Format(time.RFC3339),
		TimeZone: c.loc.String(),
		Items:    []*calendarapi.FreeBusyRequestItem{{Id: "primary"}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	var busy []contractx.TimeSlot
	if cal, ok := resp.Calendars["primary"]; ok {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, contractx.TimeSlot{Start: start, End: end})
		}
	}

	slots := toolx.CarveSlots(q.RangeStart, q.RangeEnd, busy, q.Duration, c.loc)
	if q.TopK > 0 && len(slots) > q.TopK {
		slots = slots[:q.TopK]
	}
	return slots, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, req toolx.EventRequest) (*contractx.EventDetails, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	tz := req.TimeZone
	if tz == "" {
		tz = c.loc.String()
	}

	created, err := svc.Events.Insert("primary", &calendarapi.Event{
		Summary: req.Summary,
		Start:   &calendarapi.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: tz},
		End:     &calendarapi.EventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: tz},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &contractx.EventDetails{
		Summary:  created.Summary,
		Start:    req.Start,
		End:      req.End,
		HTMLLink: created.HtmlLink,
	}, nil
}
