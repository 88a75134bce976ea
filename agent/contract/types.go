package contract

import "time"

// FailureKind classifies a failed tool dispatch. The composer maps each kind
// to distinct user-facing wording, so kinds must never be collapsed.
type FailureKind string

const (
	FailureInvalidArguments FailureKind = "invalid_arguments"
	FailureTimeout          FailureKind = "timeout"
	FailureIntegration      FailureKind = "integration_failure"
	FailureInternal         FailureKind = "internal"
)

// ToolCall is a named invocation targeting one registered tool. Arguments are
// resolved to absolute instants at decision time and never re-resolved.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Reason    string         `json:"reason,omitempty"`
}

// ToolResult is the normalized outcome of executing a ToolCall. Kind is empty
// on success; on failure Payload is nil and Kind/Message describe what broke.
type ToolResult struct {
	Tool    string      `json:"tool"`
	Payload any         `json:"payload,omitempty"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Kind != ""
}

// Turn is one request/response cycle within a conversation. Immutable once
// appended; corrections happen via a new Turn.
type Turn struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Input          string      `json:"input"`
	ToolCall       *ToolCall   `json:"tool_call,omitempty"`
	ToolResult     *ToolResult `json:"tool_result,omitempty"`
	FinalAnswer    string      `json:"final_answer"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Decision is the planner's verdict for one turn: exactly one tool call, or a
// direct answer requiring no tool.
type Decision struct {
	ToolCall *ToolCall `json:"tool_call,omitempty"`
	Answer   string    `json:"answer,omitempty"`

	// Raw is the planner's unprocessed output, surfaced as plan_text.
	Raw string `json:"raw,omitempty"`
}

func (d Decision) IsDirect() bool {
	return d.ToolCall == nil
}

// PlannerRequest carries one turn of input plus prior conversation context.
// Now anchors relative time expressions ("tomorrow", "next week") so retries
// are deterministic.
type PlannerRequest struct {
	Input   string    `json:"input"`
	History []Turn    `json:"history,omitempty"`
	Now     time.Time `json:"now"`
}

// PlanEnvelope is the complete structured result of one orchestration pass.
// It is the sole externally visible result shape and must stay stable across
// turns so the frontend can render it generically.
type PlanEnvelope struct {
	ConversationID string    `json:"conversation_id"`
	PlanText       string    `json:"plan_text"`
	ToolCall       *ToolCall `json:"tool_call"`
	ToolOutput     any       `json:"tool_output"`
	FinalAnswer    string    `json:"final_answer"`
	Warning        string    `json:"warning,omitempty"`
}

// EmailSummary is the search_emails payload element.
type EmailSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// TimeSlot is the find_free_slots payload element.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventDetails is the create_event payload.
type EventDetails struct {
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	HTMLLink string    `json:"htmlLink"`
}
