package llm

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/toxichat/toxichat/pkg/logger"
)

// Conversation loop states and events. The machine is pumped from
// Orchestrator.Converse: each enter callback records the follow-up event on
// the loop state instead of firing it reentrantly.
const (
	StateInit             = "init"
	StateAwaitModel       = "await_model"
	StateEvaluateResponse = "evaluate_response"
	StateExecuteTools     = "execute_tools"
	StateFinalize         = "finalize"
	StateTerminateError   = "terminate_error"
)

const (
	EventStartLoop         = "start_loop"
	EventModelResponse     = "model_response"
	EventResponseNoTools   = "response_no_tools"
	EventResponseWithTools = "response_with_tools"
	EventToolsExecuted     = "tools_executed"
	EventBudgetExhausted   = "budget_exhausted"
	EventDegrade           = "degrade"
	EventFailure           = "failure"
)

// loopState is the mutable context threaded through one conversation.
type loopState struct {
	turns     []Turn
	response  *Response
	batch     []FunctionCall
	finalText string
	toolCalls []ToolCallRecord
	rounds    int
	endpoint  string
	err       error
	// next is the event the pump fires after the current transition
	// completes; empty means the loop is done.
	next string
}

type loopHandlers interface {
	onAwaitModel(ctx context.Context, ls *loopState)
	onEvaluateResponse(ctx context.Context, ls *loopState)
	onExecuteTools(ctx context.Context, ls *loopState)
}

func newLoopFSM(handlers loopHandlers) *fsm.FSM {
	return fsm.NewFSM(
		StateInit,
		fsm.Events{
			{Name: EventStartLoop, Src: []string{StateInit}, Dst: StateAwaitModel},
			{Name: EventModelResponse, Src: []string{StateAwaitModel}, Dst: StateEvaluateResponse},
			{Name: EventResponseNoTools, Src: []string{StateEvaluateResponse}, Dst: StateFinalize},
			{Name: EventResponseWithTools, Src: []string{StateEvaluateResponse}, Dst: StateExecuteTools},
			{Name: EventToolsExecuted, Src: []string{StateExecuteTools}, Dst: StateAwaitModel},
			{Name: EventBudgetExhausted, Src: []string{StateExecuteTools}, Dst: StateFinalize},
			{Name: EventDegrade, Src: []string{StateAwaitModel}, Dst: StateFinalize},
			{Name: EventFailure, Src: []string{StateAwaitModel}, Dst: StateTerminateError},
		},
		fsm.Callbacks{
			"enter_" + StateAwaitModel:       makeEnterCallback(handlers.onAwaitModel),
			"enter_" + StateEvaluateResponse: makeEnterCallback(handlers.onEvaluateResponse),
			"enter_" + StateExecuteTools:     makeEnterCallback(handlers.onExecuteTools),
			"before_event": func(cbCtx context.Context, e *fsm.Event) {
				ls := loopStateFromEvent(cbCtx, e)
				logger.FromContext(cbCtx).Debug("loop transition",
					"event", e.Event,
					"from_state", e.Src,
					"to_state", e.Dst,
					"round", ls.rounds,
				)
			},
		},
	)
}

func makeEnterCallback(handler func(context.Context, *loopState)) fsm.Callback {
	return func(cbCtx context.Context, e *fsm.Event) {
		handler(cbCtx, loopStateFromEvent(cbCtx, e))
	}
}

func loopStateFromEvent(ctx context.Context, e *fsm.Event) *loopState {
	if len(e.Args) > 0 {
		if ls, ok := e.Args[0].(*loopState); ok && ls != nil {
			return ls
		}
	}
	logger.FromContext(ctx).Error("loop state missing from event args", "event", e.Event)
	return &loopState{}
}
