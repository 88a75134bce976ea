package tool

import (
	"fmt"
	"strings"
	"time"
)

func intArg(args map[string]any, key string, fallback int) (int, error) {
	value, ok := args[key]
	if !ok {
		return fallback, nil
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, value)
	}
}

func boolArg(args map[string]any, key string, fallback bool) (bool, error) {
	value, ok := args[key]
	if !ok {
		return fallback, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("argument %q must be a boolean, got %T", key, value)
	}
	return b, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, value)
	}
	return strings.TrimSpace(s), nil
}

// instantLayouts accepts the formats planners actually emit: full RFC3339,
// minute precision without zone, and bare dates.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses an ISO-8601-ish string. Naive values are interpreted
// in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty instant")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range instantLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse instant %q", s)
}

func instantArg(args map[string]any, key string, loc *time.Location) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("argument %q is required", key)
	}
	t, err := ParseInstant(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("argument %q: %w", key, err)
	}
	return t, nil
}
