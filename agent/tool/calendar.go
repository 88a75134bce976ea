package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

const (
	ToolFindFreeSlots = "find_free_slots"
	ToolCreateEvent   = "create_event"
)

const (
	defaultSlotMinutes = 120

	// maxSlotRangeDays bounds the free-slot search. The carve loop walks the
	// range day by day, so an unbounded range (a model hallucinating year
	// 9999) would spin long past the dispatch timeout.
	maxSlotRangeDays = 92
)

func findFreeSlotsParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"durationMinutes": {
			Type:     schema.Integer,
			Desc:     "Minimum length of each free block, in minutes",
			Required: true,
		},
		"rangeStart": {
			Type:     schema.String,
			Desc:     "Start of the search range, ISO-8601",
			Required: true,
		},
		"rangeEnd": {
			Type:     schema.String,
			Desc:     "End of the search range, ISO-8601",
			Required: true,
		},
		"topK": {
			Type: schema.Integer,
			Desc: "Return at most this many slots",
		},
	}
}

func findFreeSlotsExecutor(cal CalendarGateway, loc *time.Location) Executor {
	return func(ctx context.Context, args map[string]any) (any, error) {
		minutes, err := intArg(args, "durationMinutes", defaultSlotMinutes)
		if err != nil {
			return nil, err
		}
		if minutes <= 0 {
			return nil, fmt.Errorf("%w: durationMinutes must be positive, got %d", contractx.ErrValidation, minutes)
		}

		rangeStart, err := instantArg(args, "rangeStart", loc)
		if err != nil {
			return nil, err
		}
		rangeEnd, err := instantArg(args, "rangeEnd", loc)
		if err != nil {
			return nil, err
		}
		if !rangeStart.Before(rangeEnd) {
			return nil, fmt.Errorf("%w: rangeStart %s is not before rangeEnd %s", contractx.ErrValidation, rangeStart, rangeEnd)
		}
		if rangeEnd.Sub(rangeStart) > maxSlotRangeDays*24*time.Hour {
			return nil, fmt.Errorf("%w: search range from %s to %s exceeds %d days",
				contractx.ErrValidation, rangeStart.Format("2006-01-02"), rangeEnd.Format("2006-01-02"), maxSlotRangeDays)
		}

		topK, err := intArg(args, "topK", 0)
		if err != nil {
			return nil, err
		}

		slots, err := cal.FreeSlots(ctx, SlotQuery{
			RangeStart: rangeStart,
			RangeEnd:   rangeEnd,
			Duration:   time.Duration(minutes) * time.Minute,
			TopK:       topK,
		})
		if err != nil {
			return nil, err
		}
		if topK > 0 && len(slots) > topK {
			slots = slots[:topK]
		}
		return slots, nil
	}
}

func createEventParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"summary": {
			Type:     schema.String,
			Desc:     "Event title",
			Required: true,
		},
		"start": {
			Type:     schema.String,
			Desc:     "Event start, ISO-8601",
			Required: true,
		},
		"end": {
			Type:     schema.String,
			Desc:     "Event end, ISO-8601",
			Required: true,
		},
		"timeZone": {
			Type: schema.String,
			Desc: "IANA time zone for the event; defaults to the assistant's zone",
		},
	}
}

func createEventExecutor(cal CalendarGateway, loc *time.Location) Executor {
	return func(ctx context.Context, args map[string]any) (any, error) {
		summary, err := stringArg(args, "summary")
		if err != nil {
			return nil, err
		}
		if summary == "" {
			return nil, fmt.Errorf("%w: summary is required", contractx.ErrValidation)
		}

		start, err := instantArg(args, "start", loc)
		if err != nil {
			return nil, err
		}
		end, err := instantArg(args, "end", loc)
		if err != nil {
			return nil, err
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("%w: event start %s is not before end %s", contractx.ErrValidation, start, end)
		}

		timeZone, err := stringArg(args, "timeZone")
		if err != nil {
			return nil, err
		}
		if timeZone == "" && loc != nil {
			timeZone = loc.String()
		}

		event, err := cal.CreateEvent(ctx, EventRequest{
			Summary:  summary,
			Start:    start,
			End:      end,
			TimeZone: timeZone,
		})
		if err != nil {
			return nil, err
		}
		return event, nil
	}
}
