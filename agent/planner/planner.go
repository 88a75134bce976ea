package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

const historyWindow = 6

// Planner asks the chat model to pick at most one tool for the current turn.
// It owns prompt assembly, output extraction, and argument normalization; the
// caller only ever sees a Decision or a classified error.
type Planner struct {
	runner   compose.Runnable[map[string]any, *schema.Message]
	registry *toolx.Registry
	loc      *time.Location
}

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	registry *toolx.Registry,
	loc *time.Location,
	systemPrompt string,
) (*Planner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("planner: chat model is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("planner: registry is required")
	}
	if loc == nil {
		loc = time.Local
	}

	runner, err := compileDecisionGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &Planner{runner: runner, registry: registry, loc: loc}, nil
}

// plannerOutput mirrors the JSON object the prompt asks the model for.
type plannerOutput struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Reason string         `json:"reason"`
	Answer string         `json:"answer"`
}

// Decide produces exactly one Decision for the turn. Transport-level model
// failures wrap ErrPlannerUnavailable; output that cannot be parsed into a
// known tool wraps ErrPlannerOutput.
func (p *Planner) Decide(ctx context.Context, req contractx.PlannerRequest) (contractx.Decision, error) {
	payload, err := p.buildPayload(req)
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: build request payload: %v", contractx.ErrPlannerUnavailable, err)
	}

	msg, err := p.runner.Invoke(ctx, map[string]any{"input": payload})
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: %v", contractx.ErrPlannerUnavailable, err)
	}

	var out plannerOutput
	if !extractObject(msg.Content, &out) {
		log.Warn().Str("raw", msg.Content).Msg("planner output is not a JSON object, retrying once")
		msg, err = p.runner.Invoke(ctx, map[string]any{
			"input": payload + "\n\nYour previous reply was not a single valid JSON object. Reply again with only the JSON object.",
		})
		if err != nil {
			return contractx.Decision{}, fmt.Errorf("%w: retry: %v", contractx.ErrPlannerUnavailable, err)
		}
		if !extractObject(msg.Content, &out) {
			return contractx.Decision{}, fmt.Errorf("%w: no JSON object in model output", contractx.ErrPlannerOutput)
		}
	}

	tool := strings.TrimSpace(out.Tool)
	if tool == "" || strings.EqualFold(tool, "none") {
		answer := strings.TrimSpace(out.Answer)
		if answer == "" {
			answer = strings.TrimSpace(out.Reason)
		}
		return contractx.Decision{Answer: answer, Raw: msg.Content}, nil
	}

	if _, ok := p.registry.Lookup(tool); !ok {
		return contractx.Decision{}, fmt.Errorf("%w: planner chose unknown tool %q", contractx.ErrPlannerOutput, tool)
	}

	args := normalizeArgs(out.Args, req.Now, p.loc)
	return contractx.Decision{
		ToolCall: &contractx.ToolCall{Name: tool, Arguments: args, Reason: strings.TrimSpace(out.Reason)},
		Raw:      msg.Content,
	}, nil
}

// buildPayload renders the full request context as one JSON document passed
// through the user slot of the prompt. Values are substituted verbatim, so
// braces inside the payload never collide with template placeholders.
func (p *Planner) buildPayload(req contractx.PlannerRequest) (string, error) {
	now := req.Now.In(p.loc)

	history := make([]map[string]string, 0, historyWindow)
	turns := req.History
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	for _, t := range turns {
		history = append(history, map[string]string{
			"user":      t.Input,
			"assistant": t.FinalAnswer,
		})
	}

	doc := map[string]any{
		"now": map[string]string{
			"date":    now.Format("2006-01-02"),
			"weekday": now.Weekday().String(),
			"time":    now.Format("15:04"),
		},
		"timezone": p.loc.String(),
		"tools":    p.renderCatalog(),
		"history":  history,
		"request":  req.Input,
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type catalogEntry struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Args        map[string]catalogParam `json:"args"`
	Output      string                  `json:"output"`
}

type catalogParam struct {
	Type     string `json:"type"`
	Desc     string `json:"desc"`
	Required bool   `json:"required,omitempty"`
}

func (p *Planner) renderCatalog() []catalogEntry {
	names := p.registry.Names()
	entries := make([]catalogEntry, 0, len(names))
	for _, name := range names {
		t, ok := p.registry.Lookup(name)
		if !ok {
			continue
		}
		args := make(map[string]catalogParam, len(t.Params))
		for param, info := range t.Params {
			args[param] = catalogParam{
				Type:     string(info.Type),
				Desc:     info.Desc,
				Required: info.Required,
			}
		}
		entries = append(entries, catalogEntry{
			Name:        name,
			Description: t.Info.Desc,
			Args:        args,
			Output:      t.Output,
		})
	}
	return entries
}
