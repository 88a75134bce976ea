package tool

import (
	"fmt"
	"time"
)

// BuildRegistry assembles the closed tool set over the given gateways and
// freezes it. loc is the zone naive instants are interpreted in.
func BuildRegistry(mail MailGateway, cal CalendarGateway, loc *time.Location) (*Registry, error) {
	if mail == nil {
		return nil, fmt.Errorf("mail gateway is required")
	}
	if cal == nil {
		return nil, fmt.Errorf("calendar gateway is required")
	}
	if loc == nil {
		loc = time.Local
	}

	r := NewRegistry()

	if err := r.Register(
		ToolSearchEmails,
		"Search recent email and return short summaries.",
		searchEmailsParams(),
		"list of {id, subject, from, date, snippet}",
		searchEmailsExecutor(mail),
	); err != nil {
		return nil, err
	}

	if err := r.Register(
		ToolFindFreeSlots,
		"Find free calendar blocks of a given length inside a date range.",
		findFreeSlotsParams(),
		"list of {start, end} ISO-8601 instants",
		findFreeSlotsExecutor(cal, loc),
	); err != nil {
		return nil, err
	}

	if err := r.Register(
		ToolCreateEvent,
		"Create a calendar event at a specific time.",
		createEventParams(),
		"{summary, start, end, htmlLink}",
		createEventExecutor(cal, loc),
	); err != nil {
		return nil, err
	}

	r.Freeze()
	return r, nil
}
