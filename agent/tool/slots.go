package tool

import (
	"time"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// Working window considered for free-slot suggestions, local time.
const (
	windowStartHour = 13
	windowEndHour   = 19
)

// CarveSlots slices the daily working window inside [rangeStart, rangeEnd)
// into back-to-back blocks of the requested duration, skipping busy
// intervals. Shared by every calendar gateway so suggestions stay consistent
// across backends.
func CarveSlots(rangeStart, rangeEnd time.Time, busy []contractx.TimeSlot, duration time.Duration, loc *time.Location) []contractx.TimeSlot {
	if loc == nil {
		loc = time.Local
	}
	rangeStart = rangeStart.In(loc)
	rangeEnd = rangeEnd.In(loc)

	var slots []contractx.TimeSlot

	day := time.Date(rangeStart.Year(), rangeStart.Month(), rangeStart.Day(), 0, 0, 0, 0, loc)
	for !day.After(rangeEnd) {
		winStart := day.Add(windowStartHour * time.Hour)
		winEnd := day.Add(windowEndHour * time.Hour)

		segStart := maxTime(winStart, rangeStart)
		segEnd := minTime(winEnd, rangeEnd)

		if segStart.Before(segEnd) {
			for _, free := range subtractBusy(segStart, segEnd, busy) {
				cursor := free.Start
				for !cursor.Add(duration).After(free.End) {
					slots = append(slots, contractx.TimeSlot{
						Start: cursor,
						End:   cursor.Add(duration),
					})
					cursor = cursor.Add(duration)
				}
			}
		}

		day = day.AddDate(0, 0, 1)
	}
	return slots
}

// subtractBusy removes every busy interval from one free segment and returns
// the remaining pieces in order.
func subtractBusy(start, end time.Time, busy []contractx.TimeSlot) []contractx.TimeSlot {
	segments := []contractx.TimeSlot{{Start: start, End: end}}
	for _, b := range busy {
		var next []contractx.TimeSlot
		for _, seg := range segments {
			if !overlaps(seg, b) {
				next = append(next, seg)
				continue
			}
			if seg.Start.Before(b.Start) {
				next = append(next, contractx.TimeSlot{Start: seg.Start, End: minTime(seg.End, b.Start)})
			}
			if b.End.Before(seg.End) {
				next = append(next, contractx.TimeSlot{Start: maxTime(seg.Start, b.End), End: seg.End})
			}
		}
		segments = segments[:0]
		for _, seg := range next {
			if seg.Start.Before(seg.End) {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}

func overlaps(a, b contractx.TimeSlot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
