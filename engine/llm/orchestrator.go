package llm

import (
	"context"
	"fmt"

	"github.com/toxichat/toxichat/pkg/logger"
)

// Result is the outcome of one conversation. Text may be empty when the
// round budget ran out or a mid-loop endpoint failure forced a degraded
// return; ToolCalls records every tool invocation in execution order.
type Result struct {
	Text      string           `json:"response"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
	Rounds    int              `json:"rounds"`
	Endpoint  string           `json:"endpoint"`
}

// Orchestrator drives the tool-calling conversation loop: it alternates
// model calls through the Executor with batched tool execution until the
// model stops requesting tools or the round budget is spent.
type Orchestrator struct {
	executor     *Executor
	registry     *ToolRegistry
	metrics      Recorder
	systemPrompt string
	temperature  float64
	maxRounds    int
}

type OrchestratorConfig struct {
	Executor     *Executor
	Registry     *ToolRegistry
	Metrics      Recorder
	SystemPrompt string
	Temperature  float64
	// MaxRounds caps model turns per conversation; zero means
	// DefaultMaxRounds.
	MaxRounds int
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("orchestrator requires an executor")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator requires a tool registry")
	}
	o := &Orchestrator{
		executor:     cfg.Executor,
		registry:     cfg.Registry,
		metrics:      cfg.Metrics,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxRounds:    cfg.MaxRounds,
	}
	if o.metrics == nil {
		o.metrics = NopRecorder()
	}
	if o.systemPrompt == "" {
		o.systemPrompt = SystemPrompt
	}
	if o.temperature == 0 {
		o.temperature = DefaultTemperature
	}
	if o.maxRounds <= 0 {
		o.maxRounds = DefaultMaxRounds
	}
	return o, nil
}

// Converse runs the full loop for one user message and returns the final
// text plus the tool-call trail. A failure on the first model call is
// terminal; later failures degrade to whatever was captured so far.
func (o *Orchestrator) Converse(ctx context.Context, message string) (*Result, error) {
	ls := &loopState{
		turns: []Turn{{Role: RoleUser, Parts: []Part{{Text: message}}}},
		next:  EventStartLoop,
	}
	machine := newLoopFSM(o)
	for ls.next != "" {
		event := ls.next
		ls.next = ""
		if err := machine.Event(ctx, event, ls); err != nil {
			return nil, fmt.Errorf("conversation loop transition %q: %w", event, err)
		}
	}
	if machine.Current() == StateTerminateError {
		return nil, ls.err
	}
	return &Result{
		Text:      ls.finalText,
		ToolCalls: ls.toolCalls,
		Rounds:    ls.rounds,
		Endpoint:  ls.endpoint,
	}, nil
}

func (o *Orchestrator) onAwaitModel(ctx context.Context, ls *loopState) {
	resp, endpoint, err := o.executor.Execute(ctx, ls.turns, GenerateOptions{
		SystemPrompt: o.systemPrompt,
		Temperature:  o.temperature,
		Tools:        o.registry.Definitions(),
	})
	if err != nil {
		if ls.rounds == 0 {
			ls.err = err
			ls.next = EventFailure
			return
		}
		logger.FromContext(ctx).Warn("model call failed mid-conversation, returning partial result",
			"round", ls.rounds,
			"error", err,
		)
		ls.next = EventDegrade
		return
	}
	ls.response = resp
	ls.endpoint = endpoint
	ls.next = EventModelResponse
}

func (o *Orchestrator) onEvaluateResponse(ctx context.Context, ls *loopState) {
	ls.rounds++
	ls.batch = ls.batch[:0]
	for _, part := range ls.response.Parts {
		if part.Text != "" {
			// Later text parts win over earlier ones.
			ls.finalText = part.Text
		}
		if part.FunctionCall != nil {
			ls.batch = append(ls.batch, *part.FunctionCall)
		}
	}
	if len(ls.batch) == 0 {
		ls.next = EventResponseNoTools
		return
	}
	logger.FromContext(ctx).Debug("model requested tools",
		"round", ls.rounds,
		"count", len(ls.batch),
	)
	ls.next = EventResponseWithTools
}

func (o *Orchestrator) onExecuteTools(ctx context.Context, ls *loopState) {
	log := logger.FromContext(ctx)
	modelParts := make([]Part, 0, len(ls.batch))
	toolParts := make([]Part, 0, len(ls.batch))
	for _, call := range ls.batch {
		log.Info("executing tool", "tool", call.Name, "round", ls.rounds)
		result := o.registry.Execute(ctx, call)
		success := true
		if v, ok := result["success"].(bool); ok {
			success = v
		}
		o.metrics.RecordToolExecution(call.Name, success)
		ls.toolCalls = append(ls.toolCalls, ToolCallRecord{
			Name:      call.Name,
			Arguments: call.Args,
			Result:    result,
		})
		modelParts = append(modelParts, Part{FunctionCall: &call})
		toolParts = append(toolParts, Part{FunctionResponse: &FunctionResponse{
			Name:     call.Name,
			Response: result,
		}})
	}
	ls.turns = append(ls.turns,
		Turn{Role: RoleModel, Parts: modelParts},
		Turn{Role: RoleTool, Parts: toolParts},
	)
	ls.batch = nil
	if ls.rounds >= o.maxRounds {
		log.Warn("tool round budget exhausted, returning captured text", "rounds", ls.rounds)
		ls.next = EventBudgetExhausted
		return
	}
	ls.next = EventToolsExecuted
}
