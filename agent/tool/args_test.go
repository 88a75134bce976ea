package tool

import (
	"testing"
	"time"
)

func TestParseInstantLayouts(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	cases := []struct {
		name  string
		input string
		check func(t *testing.T, got time.Time)
	}{
		{
			name:  "rfc3339 keeps offset",
			input: "2026-03-12T14:00:00+03:00",
			check: func(t *testing.T, got time.Time) {
				if got.Hour() != 14 {
					t.Fatalf("unexpected hour: %v", got)
				}
			},
		},
		{
			name:  "naive minute precision uses loc",
			input: "2026-03-12T14:00",
			check: func(t *testing.T, got time.Time) {
				if got.Location().String() != "Europe/Istanbul" {
					t.Fatalf("expected Istanbul zone, got %v", got.Location())
				}
				if got.Hour() != 14 {
					t.Fatalf("unexpected hour: %v", got)
				}
			},
		},
		{
			name:  "bare date is midnight local",
			input: "2026-03-12",
			check: func(t *testing.T, got time.Time) {
				if got.Hour() != 0 || got.Day() != 12 {
					t.Fatalf("unexpected instant: %v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseInstant(tc.input, loc)
			if err != nil {
				t.Fatalf("ParseInstant(%q) error = %v", tc.input, err)
			}
			tc.check(t, got)
		})
	}
}

func TestParseInstantRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "tomorrow at noon", "12/03/2026"} {
		if _, err := ParseInstant(input, time.UTC); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestIntArgCoercions(t *testing.T) {
	t.Parallel()

	args := map[string]any{"a": float64(7), "b": 3, "c": "nope"}

	if v, err := intArg(args, "a", 0); err != nil || v != 7 {
		t.Fatalf("float64 coercion failed: v=%d err=%v", v, err)
	}
	if v, err := intArg(args, "b", 0); err != nil || v != 3 {
		t.Fatalf("int passthrough failed: v=%d err=%v", v, err)
	}
	if v, err := intArg(args, "missing", 42); err != nil || v != 42 {
		t.Fatalf("fallback failed: v=%d err=%v", v, err)
	}
	if _, err := intArg(args, "c", 0); err == nil {
		t.Fatal("expected error for string value")
	}
}
