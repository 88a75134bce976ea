package composer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

const maxListedSubjects = 5

// Composer turns a Decision plus an optional ToolResult into the final user
// reply. The factual summary is always built deterministically; an optional
// chat model only rephrases it and is bypassed on any error, so the turn
// never fails at the wording stage.
type Composer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

// NewStatic builds a composer that answers with the deterministic summary
// only. Used in tests and in demo mode without a model.
func NewStatic() *Composer {
	return &Composer{}
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Composer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("composer: chat model is required")
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add composer prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add composer model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add composer edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add composer edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add composer edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("composer.reply_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile composer graph: %w", err)
	}
	return &Composer{runner: runner}, nil
}

// Compose renders the reply for one turn. A direct decision passes the
// planner's answer through; a tool result is summarized by kind.
func (c *Composer) Compose(ctx context.Context, input string, d contractx.Decision, result *contractx.ToolResult) (string, error) {
	if d.IsDirect() {
		answer := strings.TrimSpace(d.Answer)
		if answer == "" {
			answer = "Understood. Let me know if you would like me to check your mail or calendar."
		}
		return answer, nil
	}

	facts := c.describeResult(result)
	if c.runner == nil {
		return facts, nil
	}

	payload, err := json.Marshal(map[string]string{
		"request": input,
		"facts":   facts,
	})
	if err != nil {
		return facts, nil
	}

	msg, err := c.runner.Invoke(ctx, map[string]any{"input": string(payload)})
	if err != nil {
		log.Warn().Err(err).Msg("composer model failed, using deterministic summary")
		return facts, nil
	}
	reply := strings.TrimSpace(msg.Content)
	if reply == "" {
		return facts, nil
	}
	return reply, nil
}

// describeResult builds the factual summary the model is allowed to rephrase
// but never contradict. Failure kinds keep deliberately distinct wording.
func (c *Composer) describeResult(result *contractx.ToolResult) string {
	if result == nil {
		return "Nothing was executed for this request."
	}
	if result.Failed() {
		switch result.Kind {
		case contractx.FailureInvalidArguments:
			return fmt.Sprintf("I could not understand the request well enough to run %s: %s. Please rephrase with concrete details.", result.Tool, result.Message)
		case contractx.FailureTimeout:
			return fmt.Sprintf("The %s service did not respond in time. Please try again in a moment.", result.Tool)
		case contractx.FailureIntegration:
			return fmt.Sprintf("The %s service is currently unavailable: %s.", result.Tool, result.Message)
		default:
			return fmt.Sprintf("Something went wrong on my side while running %s. Please try again.", result.Tool)
		}
	}
	return summarizePayload(result.Tool, result.Payload)
}

func summarizePayload(tool string, payload any) string {
	switch p := payload.(type) {
	case []contractx.EmailSummary:
		if len(p) == 0 {
			return "The search finished but found no matching emails."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d matching email(s).", len(p))
		limit := len(p)
		if limit > maxListedSubjects {
			limit = maxListedSubjects
		}
		for _, e := range p[:limit] {
			fmt.Fprintf(&b, "\n- %s (from %s)", e.Subject, e.From)
		}
		if len(p) > limit {
			fmt.Fprintf(&b, "\n...and %d more.", len(p)-limit)
		}
		return b.String()
	case []contractx.TimeSlot:
		if len(p) == 0 {
			return "The calendar was checked but no free slots fit the requested range."
		}
		first, last := p[0], p[len(p)-1]
		return fmt.Sprintf(
			"Found %d free slot(s) between %s and %s.",
			len(p),
			first.Start.Format(time.RFC3339),
			last.End.Format(time.RFC3339),
		)
	case *contractx.EventDetails:
		if p == nil {
			return fmt.Sprintf("The %s call finished but returned no event.", tool)
		}
		out := fmt.Sprintf(
			"Created event %q from %s to %s.",
			p.Summary,
			p.Start.Format(time.RFC3339),
			p.End.Format(time.RFC3339),
		)
		if p.HTMLLink != "" {
			out += " Link: " + p.HTMLLink
		}
		return out
	case nil:
		return fmt.Sprintf("The %s call finished but returned nothing.", tool)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Sprintf("The %s call finished.", tool)
		}
		return fmt.Sprintf("The %s call returned: %s", tool, raw)
	}
}

// ComposeError explains a planner failure without exposing internals.
func (c *Composer) ComposeError(err error) string {
	switch {
	case errors.Is(err, contractx.ErrPlannerUnavailable):
		return "I cannot reach my planning model right now. Please try again in a moment."
	case errors.Is(err, contractx.ErrPlannerOutput):
		return "I had trouble working out what to do with that. Could you rephrase your request?"
	default:
		return "Something went wrong while handling your request. Please try again."
	}
}
