package contract

import "context"

// Planner turns one turn of free-form input plus history into a Decision.
// Implementations must choose at most one tool, constrained to the registry
// catalog they were built with.
type Planner interface {
	Decide(ctx context.Context, req PlannerRequest) (Decision, error)
}

// Composer produces the user-facing answer for a turn. It must degrade
// gracefully: a nil or empty result yields an acknowledgement, never an error
// the caller cannot render.
type Composer interface {
	Compose(ctx context.Context, input string, d Decision, result *ToolResult) (string, error)

	// ComposeError explains a planner failure to the user, distinguishing
	// an unavailable upstream from unparseable output.
	ComposeError(err error) string
}
