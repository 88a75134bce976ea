package planner

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?im)^```(?:json)?\\s*|\\s*```$")

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = fencePattern.ReplaceAllString(text, "")
	for _, marker := range []string{"[/ASSISTANT]", "[ASSISTANT]", "[/USER]", "[USER]"} {
		text = strings.ReplaceAll(text, marker, "")
	}
	return strings.TrimSpace(text)
}

// findJSONSpan locates the last balanced JSON object in s, scanning from the
// final closing brace backwards. Models tend to append the object after
// their reasoning, so the last object is the answer.
func findJSONSpan(s string) string {
	s = stripFences(s)
	close := strings.LastIndexByte(s, '}')
	if close == -1 {
		return ""
	}

	balance := 0
	for i := close; i >= 0; i-- {
		switch s[i] {
		case '}':
			balance++
		case '{':
			balance--
			if balance == 0 {
				return s[i : close+1]
			}
		}
	}

	first := strings.IndexByte(s, '{')
	if first == -1 {
		return ""
	}
	return s[first : close+1]
}

var (
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
)

// lightSanitize fixes the frequent small-model JSON mistakes: smart quotes,
// single-quoted strings, trailing commas, and unclosed objects.
func lightSanitize(j string) string {
	j = stripFences(strings.TrimSpace(j))
	j = strings.NewReplacer("“", `"`, "”", `"`, "’", "'").Replace(j)
	if !strings.Contains(j, `"`) && strings.Contains(j, "'") {
		j = strings.ReplaceAll(j, "'", `"`)
	}
	j = trailingCommaObject.ReplaceAllString(j, "}")
	j = trailingCommaArray.ReplaceAllString(j, "]")
	if open, closed := strings.Count(j, "{"), strings.Count(j, "}"); open > closed {
		j += strings.Repeat("}", open-closed)
	}
	return j
}

// extractObject returns the single JSON object embedded in model output, or
// false when none can be recovered.
func extractObject(text string, out any) bool {
	span := findJSONSpan(text)
	if span == "" {
		return false
	}
	if err := json.Unmarshal([]byte(span), out); err == nil {
		return true
	}
	return json.Unmarshal([]byte(lightSanitize(span)), out) == nil
}
