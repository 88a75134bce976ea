package planner

import (
	"time"

	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

// instantKeys are the argument names that carry time values across the tool
// catalog.
var instantKeys = []string{"rangeStart", "rangeEnd", "start", "end", "due"}

// normalizeArgs resolves the time-valued arguments to absolute RFC3339
// instants anchored at now. Values with a year in the past are pulled into
// the current year: small models love to emit their training-data year.
// Resolution happens exactly once, at decision time, so retries replay the
// same instants.
func normalizeArgs(args map[string]any, now time.Time, loc *time.Location) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	for _, key := range instantKeys {
		raw, ok := args[key].(string)
		if !ok || raw == "" {
			continue
		}
		t, err := toolx.ParseInstant(raw, loc)
		if err != nil {
			continue
		}
		if t.Year() < now.Year() {
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		}
		args[key] = t.Format(time.RFC3339)
	}
	return args
}
