package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/composer.txt
	composerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Planner  string
	Composer string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner:  strings.TrimSpace(plannerRaw),
		Composer: strings.TrimSpace(composerRaw),
	}
}
