package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ToolHandler executes a batch of tool invocations and produces exactly one
// output per invocation, matched by invocation id. Individual failures are
// embedded in the corresponding output and never propagated out of the batch.
type ToolHandler interface {
	Handle(ctx context.Context, batch []ToolInvocation) []ToolOutput
}

// ToolFunc executes one named function with its raw argument payload.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher maps function names to local handlers and converts their
// outcomes into tool-output records.
type Dispatcher struct {
	logger *slog.Logger
	funcs  map[string]ToolFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		funcs:  make(map[string]ToolFunc),
	}
}

// Register binds a function name to its handler.
func (d *Dispatcher) Register(name string, fn ToolFunc) {
	d.funcs[name] = fn
}

// Handle implements ToolHandler. Unknown function names are rejected with an
// "unsupported function" error payload rather than silently skipped.
func (d *Dispatcher) Handle(ctx context.Context, batch []ToolInvocation) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(batch))
	for _, invocation := range batch {
		outputs = append(outputs, d.dispatch(ctx, invocation))
	}
	return outputs
}

func (d *Dispatcher) dispatch(ctx context.Context, invocation ToolInvocation) ToolOutput {
	fn, ok := d.funcs[invocation.Name]
	if !ok {
		d.logger.Warn("unsupported tool function",
			slog.String("invocation_id", invocation.ID),
			slog.String("function", invocation.Name))
		return errorOutput(invocation.ID, fmt.Sprintf("unsupported function: %s", invocation.Name))
	}

	d.logger.Info("handling tool invocation",
		slog.String("invocation_id", invocation.ID),
		slog.String("function", invocation.Name))

	result, err := invoke(ctx, fn, json.RawMessage(invocation.Arguments))
	if err != nil {
		d.logger.Error("tool invocation failed",
			slog.String("invocation_id", invocation.ID),
			slog.String("function", invocation.Name),
			slog.String("error", err.Error()))
		return errorOutput(invocation.ID, err.Error())
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return errorOutput(invocation.ID, fmt.Sprintf("failed to encode tool result: %v", err))
	}
	return ToolOutput{InvocationID: invocation.ID, Output: string(payload)}
}

// invoke shields the batch from handler panics; a panic is reported as that
// invocation's failure.
func invoke(ctx context.Context, fn ToolFunc, args json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool handler panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

func errorOutput(invocationID, message string) ToolOutput {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		payload = []byte(`{"error": "tool invocation failed"}`)
	}
	return ToolOutput{InvocationID: invocationID, Output: string(payload)}
}
