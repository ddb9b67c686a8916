// Package assistant drives remote conversational runs against an LLM
// assistant platform: it creates messages and runs, polls run status,
// dispatches mid-run tool invocations to local handlers, and extracts the
// final assistant reply.
package assistant

import (
	"context"
)

// RunStatus is the status vocabulary of the remote platform.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// IsAbnormalTerminal reports whether the status ends a run without a reply.
func (s RunStatus) IsAbnormalTerminal() bool {
	return s == RunStatusFailed || s == RunStatusCancelled || s == RunStatusExpired
}

// IsActive reports whether the remote run still occupies its thread.
func (s RunStatus) IsActive() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// Run is one platform-owned execution of an assistant turn against a thread.
type Run struct {
	ID     string
	Status RunStatus
	// PendingInvocations is non-empty only while Status is requires_action.
	PendingInvocations []ToolInvocation
}

// ToolInvocation is a structured request, emitted by a paused run, for the
// caller to execute a named function.
type ToolInvocation struct {
	ID        string
	Name      string
	Arguments string
}

// ToolOutput is the result of executing a ToolInvocation, submitted back to
// resume the run.
type ToolOutput struct {
	InvocationID string
	Output       string
}

// ThreadMessage is one message of a remote thread, reduced to its first text
// payload. Text is empty when the message carries no text content.
type ThreadMessage struct {
	Role string
	Text string
}

// Platform is the surface of the remote LLM assistant platform consumed by the
// orchestrator.
type Platform interface {
	// ProvisionAssistant creates a dedicated assistant for an operator, wired
	// with the campaign and chat-search function tools, plus its initial
	// thread. Returns the assistant id and the thread id.
	ProvisionAssistant(ctx context.Context, adminName string) (string, string, error)

	CreateThread(ctx context.Context) (string, error)
	CreateMessage(ctx context.Context, threadID, text string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListRuns(ctx context.Context, threadID string, limit int) ([]*Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error
	// ListMessages returns up to limit messages, newest first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]*ThreadMessage, error)
}
