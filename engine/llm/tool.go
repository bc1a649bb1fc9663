package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/toxichat/toxichat/pkg/logger"
)

// ToolRegistry holds the tools advertised to the remote model. Registration
// happens at startup; lookups are concurrent-safe.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *ToolRegistry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Find returns the tool with the given name.
func (r *ToolRegistry) Find(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns every tool definition in registration order, for
// advertisement to the remote model.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute runs one tool invocation synchronously. Failures never escape as
// errors: an unknown tool or a tool that returns an error produces a result
// map with success=false, which is fed back to the model as a value so its
// next round can decide how to proceed.
func (r *ToolRegistry) Execute(ctx context.Context, call FunctionCall) map[string]any {
	log := logger.FromContext(ctx)
	tool, ok := r.Find(call.Name)
	if !ok {
		log.Warn("model requested unknown tool", "tool", call.Name)
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("unknown function: %s, available: %v", call.Name, r.Names()),
		}
	}
	result, err := tool.Call(ctx, call.Args)
	if err != nil {
		log.Warn("tool execution failed", "tool", call.Name, "error", err)
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("error executing %s: %v", call.Name, err),
		}
	}
	return result
}
