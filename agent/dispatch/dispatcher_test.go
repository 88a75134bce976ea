package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

func buildTestRegistry(t *testing.T, exec toolx.Executor) *toolx.Registry {
	t.Helper()

	r := toolx.NewRegistry()
	params := map[string]*schema.ParameterInfo{
		"days": {Type: schema.Integer, Desc: "lookback window", Required: true},
	}
	if err := r.Register("echo_args", "test tool", params, "nothing", exec); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r.Freeze()
	return r
}

func TestExecuteSuccess(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		return "payload", nil
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{"days": 7},
	})
	if res.Failed() {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if res.Payload != "payload" {
		t.Fatalf("unexpected payload: %v", res.Payload)
	}
	if res.Tool != "echo_args" {
		t.Fatalf("unexpected tool name: %q", res.Tool)
	}
}

func TestExecuteInvalidArgumentsSkipsExecutor(t *testing.T) {
	t.Parallel()

	executed := false
	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		executed = true
		return nil, nil
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{},
	})
	if res.Kind != contractx.FailureInvalidArguments {
		t.Fatalf("expected invalid_arguments, got %q", res.Kind)
	}
	if executed {
		t.Fatal("executor must not run on validation failure")
	}
	if res.Message == "" {
		t.Fatal("expected a validation message")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		return nil, nil
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{Name: "ghost"})
	if res.Kind != contractx.FailureInternal {
		t.Fatalf("expected internal, got %q", res.Kind)
	}
}

func TestExecuteTimeout(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	d, err := New(r, Config{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{"days": 1},
	})
	if res.Kind != contractx.FailureTimeout {
		t.Fatalf("expected timeout, got %q (%s)", res.Kind, res.Message)
	}
}

func TestExecuteIntegrationFailure(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("upstream said 503")
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{"days": 1},
	})
	if res.Kind != contractx.FailureIntegration {
		t.Fatalf("expected integration_failure, got %q", res.Kind)
	}
	if res.Message != "upstream said 503" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestExecuteSemanticRejectionIsInvalidArguments(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		return nil, fmt.Errorf("%w: search range exceeds 92 days", contractx.ErrValidation)
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{"days": 1},
	})
	if res.Kind != contractx.FailureInvalidArguments {
		t.Fatalf("expected invalid_arguments for a semantic rejection, got %q", res.Kind)
	}
}

func TestExecutePanicIsContained(t *testing.T) {
	t.Parallel()

	r := buildTestRegistry(t, func(ctx context.Context, args map[string]any) (any, error) {
		panic("boom")
	})
	d, err := New(r, Config{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := d.Execute(context.Background(), contractx.ToolCall{
		Name:      "echo_args",
		Arguments: map[string]any{"days": 1},
	})
	if !res.Failed() {
		t.Fatal("expected a failure result")
	}
	if res.Kind != contractx.FailureIntegration {
		t.Fatalf("expected panic normalized to integration_failure, got %q", res.Kind)
	}
}
