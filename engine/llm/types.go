package llm

import "context"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Turn is one entry in the conversation sent to the remote backend.
// Turns are append-only within a single top-level request and are discarded
// when the request completes.
type Turn struct {
	Role  Role
	Parts []Part
}

// Part is one content part of a turn: plain text, a tool invocation emitted
// by the model, or a tool result fed back by the orchestrator. Exactly one
// field is expected to be set.
type Part struct {
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// FunctionCall is a structured tool-invocation request from the model.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse carries a tool result back into the conversation.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Response is the remote backend's reply: zero or more content parts.
type Response struct {
	Parts []Part
}

// ToolDefinition describes a tool advertised to the remote model.
// Parameters follows JSON Schema property conventions.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

// GenerateOptions are the per-call options passed to the backend.
type GenerateOptions struct {
	SystemPrompt string
	Temperature  float64
	Tools        []ToolDefinition
}

// Endpoint is one addressable model endpoint of the remote backend.
// Endpoints are discovered once at startup and immutable thereafter.
type Endpoint struct {
	// Name is the full identifier, e.g. "models/gemini-2.5-flash".
	Name string
	// DisplayName is the short human-readable form, e.g. "gemini-2.5-flash".
	DisplayName string
}

// Backend is the contract to the remote generative API. Implementations may
// return transport errors whose text is pattern-matched for failure
// classification; they must not retry internally. Retry and fallback policy
// belongs to the Executor.
type Backend interface {
	Generate(ctx context.Context, endpoint string, turns []Turn, opts GenerateOptions) (*Response, error)
}

// Tool is a locally executable function the remote model can invoke.
// Call never reports domain failures through its error return: a failed
// prediction is a value with success=false. The error return is reserved for
// wiring problems (malformed arguments that cannot be decoded at all).
type Tool interface {
	Name() string
	Description() string
	Definition() ToolDefinition
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolCallRecord is one entry in the ordered, cross-round log of tool
// executions performed during a conversation.
type ToolCallRecord struct {
	Name      string         `json:"function"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}
