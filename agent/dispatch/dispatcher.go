// Package dispatch validates and executes planner tool calls, normalizing
// every outcome into a uniform result envelope. It never retries; only the
// concrete executor knows which of its failures are safe to retry.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

type Config struct {
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"20s"`
}

type Dispatcher struct {
	registry *toolx.Registry
	timeout  time.Duration
}

func New(registry *toolx.Registry, cfg Config) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Dispatcher{registry: registry, timeout: timeout}, nil
}

// Execute runs one tool call: lookup, schema validation, then a single
// bounded executor invocation. Validation failures never reach the executor,
// so there are no partial side effects.
func (d *Dispatcher) Execute(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	t, ok := d.registry.Lookup(call.Name)
	if !ok {
		// The planner is constrained to the registry set; reaching here is
		// an invariant violation, not a user error.
		log.Error().Str("tool", call.Name).Msg("dispatch of unregistered tool")
		return contractx.ToolResult{
			Tool:    call.Name,
			Kind:    contractx.FailureInternal,
			Message: fmt.Sprintf("tool %q is not registered", call.Name),
		}
	}

	if err := d.registry.Validate(call.Name, call.Arguments); err != nil {
		return contractx.ToolResult{
			Tool:    call.Name,
			Kind:    contractx.FailureInvalidArguments,
			Message: err.Error(),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		payload any
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("executor panic: %v", r)}
			}
		}()
		payload, err := t.Execute(ctx, call.Arguments)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn().Str("tool", call.Name).Dur("timeout", d.timeout).Msg("tool execution timed out")
			return contractx.ToolResult{
				Tool:    call.Name,
				Kind:    contractx.FailureTimeout,
				Message: fmt.Sprintf("tool %s did not respond within %s", call.Name, d.timeout),
			}
		}
		return contractx.ToolResult{
			Tool:    call.Name,
			Kind:    contractx.FailureInternal,
			Message: fmt.Sprintf("tool %s aborted: %v", call.Name, ctx.Err()),
		}
	case out := <-done:
		if out.err != nil {
			// Executors flag semantic rejections (bad ranges, zero
			// durations) with ErrValidation; those are the caller's fault,
			// not the integration's.
			if errors.Is(out.err, contractx.ErrValidation) {
				return contractx.ToolResult{
					Tool:    call.Name,
					Kind:    contractx.FailureInvalidArguments,
					Message: out.err.Error(),
				}
			}
			log.Warn().Str("tool", call.Name).Err(out.err).Msg("tool execution failed")
			return contractx.ToolResult{
				Tool:    call.Name,
				Kind:    contractx.FailureIntegration,
				Message: out.err.Error(),
			}
		}
		return contractx.ToolResult{
			Tool:    call.Name,
			Payload: out.payload,
		}
	}
}
