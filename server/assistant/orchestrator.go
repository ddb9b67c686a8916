package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/misciohq/miscio/internal/errors"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultReconcileDelay = 500 * time.Millisecond
	reconcileListLimit    = 20
)

// Orchestrator drives one remote run per ProcessMessage invocation from
// creation to a terminal state. Invocations on the same thread are serialized
// behind a per-thread mutex so reconciliation is a real mutual-exclusion
// guarantee, not a best-effort courtesy.
type Orchestrator struct {
	platform Platform
	logger   *slog.Logger

	pollInterval   time.Duration
	reconcileDelay time.Duration
	maxRunDuration time.Duration

	guards keyedMutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPollInterval sets the run status polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollInterval = d
	}
}

// WithReconcileDelay sets the settle delay after cancelling stale runs.
func WithReconcileDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.reconcileDelay = d
	}
}

// WithMaxRunDuration bounds a single ProcessMessage end to end, tool calls
// included. Zero means the caller's context is the only bound.
func WithMaxRunDuration(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.maxRunDuration = d
	}
}

// NewOrchestrator creates a new Orchestrator with the given options.
func NewOrchestrator(platform Platform, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		platform:       platform,
		logger:         logger,
		pollInterval:   defaultPollInterval,
		reconcileDelay: defaultReconcileDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessMessage appends the user message to the remote thread, starts a run
// with the given assistant, and drives it to a terminal state. When the run
// pauses for action, the full tool-invocation batch is delegated to handler
// and exactly one output per invocation is submitted back. The final assistant
// reply text is returned on completion.
//
// The caller bounds the whole operation through ctx; there is no internal
// iteration limit on the polling loop.
func (o *Orchestrator) ProcessMessage(ctx context.Context, threadID, assistantID, text string, handler ToolHandler) (string, error) {
	unlock := o.guards.lock(threadID)
	defer unlock()

	if o.maxRunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.maxRunDuration)
		defer cancel()
	}

	o.reconcileRuns(ctx, threadID)

	if err := o.platform.CreateMessage(ctx, threadID, text); err != nil {
		return "", apperrors.PlatformUnavailable(err)
	}

	run, err := o.platform.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return "", apperrors.PlatformUnavailable(err)
	}
	o.logger.Info("run started",
		slog.String("thread_id", threadID),
		slog.String("run_id", run.ID))

	for {
		switch {
		case run.Status == RunStatusRequiresAction:
			if handler == nil {
				return "", apperrors.ToolExecutionUnsupported()
			}
			outputs := completeOutputs(run.PendingInvocations, handler.Handle(ctx, run.PendingInvocations))
			if err := o.platform.SubmitToolOutputs(ctx, threadID, run.ID, outputs); err != nil {
				return "", apperrors.PlatformUnavailable(err)
			}
			o.logger.Info("tool outputs submitted",
				slog.String("run_id", run.ID),
				slog.Int("count", len(outputs)))

		case run.Status == RunStatusCompleted:
			return o.finalReply(ctx, threadID)

		case run.Status.IsAbnormalTerminal():
			return "", apperrors.RunTerminatedAbnormally(string(run.Status))
		}

		if err := sleepCtx(ctx, o.pollInterval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", apperrors.Timeout("run polling exceeded its deadline")
			}
			return "", apperrors.ContextCanceled(err)
		}
		run, err = o.platform.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return "", apperrors.PlatformUnavailable(err)
		}
	}
}

// reconcileRuns cancels runs left open on the thread by earlier invocations.
// Cancellation is best-effort: a failure is logged and does not abort the
// overall operation.
func (o *Orchestrator) reconcileRuns(ctx context.Context, threadID string) {
	runs, err := o.platform.ListRuns(ctx, threadID, reconcileListLimit)
	if err != nil {
		o.logger.Warn("failed to list runs for reconciliation",
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()))
		return
	}

	cancelled := 0
	for _, run := range runs {
		if !run.Status.IsActive() {
			continue
		}
		if err := o.platform.CancelRun(ctx, threadID, run.ID); err != nil {
			o.logger.Warn("failed to cancel stale run",
				slog.String("thread_id", threadID),
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
			continue
		}
		o.logger.Info("cancelled stale run",
			slog.String("thread_id", threadID),
			slog.String("run_id", run.ID))
		cancelled++
	}
	if cancelled > 0 {
		// Give the platform a moment to propagate the cancellations before a
		// new run is created against the same thread.
		_ = sleepCtx(ctx, o.reconcileDelay)
	}
}

func (o *Orchestrator) finalReply(ctx context.Context, threadID string) (string, error) {
	messages, err := o.platform.ListMessages(ctx, threadID, 1)
	if err != nil {
		return "", apperrors.PlatformUnavailable(err)
	}
	if len(messages) == 0 {
		return "", apperrors.MalformedResponse("no messages returned for completed run")
	}
	if messages[0].Text == "" {
		return "", apperrors.MalformedResponse("final message has no text content")
	}
	return messages[0].Text, nil
}

// completeOutputs enforces the batch contract: exactly one output per
// invocation, matched by id. Missing outputs are replaced with error-tagged
// tokens and outputs for unknown invocation ids are dropped, since partial or
// mismatched submission is not a valid protocol state.
func completeOutputs(batch []ToolInvocation, outputs []ToolOutput) []ToolOutput {
	byID := make(map[string]ToolOutput, len(outputs))
	for _, output := range outputs {
		byID[output.InvocationID] = output
	}

	complete := make([]ToolOutput, 0, len(batch))
	for _, invocation := range batch {
		if output, ok := byID[invocation.ID]; ok {
			complete = append(complete, output)
			continue
		}
		complete = append(complete, ToolOutput{
			InvocationID: invocation.ID,
			Output:       `{"error": "no output produced for tool invocation"}`,
		})
	}
	return complete
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// keyedMutex serializes operations per key. Entries are reference counted and
// removed once the last holder unlocks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
