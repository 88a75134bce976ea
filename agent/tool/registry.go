package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

// Executor runs one validated tool invocation and returns the raw payload.
type Executor func(ctx context.Context, args map[string]any) (any, error)

// Tool bundles a declared schema with its executor. Output describes the
// payload shape for the planner prompt; deep semantic validation stays with
// the executor.
type Tool struct {
	Info    *schema.ToolInfo
	Params  map[string]*schema.ParameterInfo
	Output  string
	Execute Executor
}

// Registry is the closed tool set. Register before Freeze at startup; after
// Freeze the registry is read-only, so in-flight calls never race a
// registration.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	tools  map[string]*Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

func (r *Registry) Register(name, desc string, params map[string]*schema.ParameterInfo, output string, exec Executor) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: tool name is required", contractx.ErrValidation)
	}
	if exec == nil {
		return fmt.Errorf("%w: tool %s has no executor", contractx.ErrValidation, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: registry is frozen, cannot register %s", contractx.ErrValidation, name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: tool %s is already registered", contractx.ErrValidation, name)
	}

	r.tools[name] = &Tool{
		Info: &schema.ToolInfo{
			Name:        name,
			Desc:        desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
		Params:  params,
		Output:  output,
		Execute: exec,
	}
	return nil
}

// Freeze makes the registry immutable. Tools are not hot-pluggable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Lookup(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, name := range r.namesLocked() {
		infos = append(infos, r.tools[name].Info)
	}
	return infos
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks required argument presence and primitive type
// compatibility against the declared schema. Deep semantics (is a slot
// actually free) belong to the executor.
func (r *Registry) Validate(name string, args map[string]any) error {
	t, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, name)
	}

	for param, info := range t.Params {
		value, present := args[param]
		if !present {
			if info.Required {
				return fmt.Errorf("%w: tool %s requires argument %q", contractx.ErrValidation, name, param)
			}
			continue
		}
		if err := checkType(param, info.Type, value); err != nil {
			return fmt.Errorf("%w: tool %s: %v", contractx.ErrValidation, name, err)
		}
	}
	return nil
}

func checkType(param string, want schema.DataType, value any) error {
	switch want {
	case schema.String:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string, got %T", param, value)
		}
	case schema.Boolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean, got %T", param, value)
		}
	case schema.Integer:
		switch v := value.(type) {
		case int, int32, int64:
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("argument %q must be an integer, got %v", param, v)
			}
		default:
			return fmt.Errorf("argument %q must be an integer, got %T", param, value)
		}
	case schema.Number:
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("argument %q must be a number, got %T", param, value)
		}
	}
	return nil
}
