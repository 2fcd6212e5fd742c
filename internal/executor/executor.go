// Package executor runs resolved tool calls against their connectors,
// racing each invocation against a per-call timeout. Failures are data:
// every call produces a Result, and errors flow back to the model as
// failure outcomes rather than aborting the batch.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/an09mous/Extremis-sub003/internal/connector"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// DefaultTimeout bounds a single tool call when the caller does not
// configure one.
const DefaultTimeout = 30 * time.Second

// Gate authorizes a call before it reaches its connector. A non-nil error
// refuses the call; the error message becomes the failure outcome.
type Gate interface {
	Authorize(ctx context.Context, call tool.Call) error
}

// Executor dispatches tool calls to registered connectors.
type Executor struct {
	registry *connector.Registry
	gate     Gate
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithGate installs an authorization gate consulted before every call.
func WithGate(g Gate) Option {
	return func(e *Executor) { e.gate = g }
}

// WithLogger overrides the executor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(registry *connector.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one call and always returns a Result; errors are embedded
// as failure outcomes. The connector invocation races the configured
// timeout, and the loser is cancelled.
func (e *Executor) Execute(ctx context.Context, call tool.Call) tool.Result {
	started := time.Now()

	conn, err := e.registry.Get(call.ConnectorID)
	if err != nil {
		return e.finish(call, started, tool.Failure(tool.Error{
			Message: fmt.Sprintf("connector %q not found for tool %q", call.ConnectorID, call.ToolName),
		}))
	}

	if e.gate != nil {
		if err := e.gate.Authorize(ctx, call); err != nil {
			return e.finish(call, started, tool.Failure(tool.Error{
				Message: fmt.Sprintf("call refused: %v", err),
			}))
		}
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type callOutcome struct {
		content *tool.Content
		err     error
	}
	done := make(chan callOutcome, 1)
	go func() {
		content, err := conn.Call(callCtx, call.OriginalToolName, call.Arguments)
		done <- callOutcome{content: content, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return e.finish(call, started, tool.Failure(toolError(out.err)))
		}
		var content tool.Content
		if out.content != nil {
			content = *out.content
		}
		return e.finish(call, started, tool.Success(content))
	case <-timer.C:
		cancel()
		return e.finish(call, started, tool.Failure(tool.Error{
			Message:   fmt.Sprintf("tool %q timed out after %s", call.ToolName, e.timeout),
			Retryable: true,
		}))
	case <-ctx.Done():
		cancel()
		return e.finish(call, started, tool.Failure(tool.Error{
			Message: fmt.Sprintf("tool %q cancelled: %v", call.ToolName, ctx.Err()),
		}))
	}
}

// ExecuteAll runs the calls strictly sequentially, preserving input order.
// An empty batch returns an empty slice.
func (e *Executor) ExecuteAll(ctx context.Context, calls []tool.Call) []tool.Result {
	results := make([]tool.Result, 0, len(calls))
	for _, call := range calls {
		results = append(results, e.Execute(ctx, call))
	}
	return results
}

// ExecuteBatch runs the calls and aggregates the results.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []tool.Call) BatchResult {
	results := e.ExecuteAll(ctx, calls)
	return NewBatchResult(results)
}

func (e *Executor) finish(call tool.Call, started time.Time, outcome tool.Outcome) tool.Result {
	duration := time.Since(started)
	if outcome.Succeeded() {
		e.logger.Debug("tool call finished", "tool", call.ToolName, "duration", duration)
	} else {
		failure, _ := outcome.Err()
		e.logger.Warn("tool call failed", "tool", call.ToolName, "duration", duration, "error", failure.Message)
	}
	return tool.Result{
		CallID:      call.ID,
		ToolName:    call.ToolName,
		Outcome:     outcome,
		Duration:    duration,
		CompletedAt: time.Now(),
	}
}

// toolError maps connector errors to failure payloads, preserving the
// retryability hint when the connector supplied one.
func toolError(err error) tool.Error {
	var callErr *connector.CallError
	if errors.As(err, &callErr) {
		return tool.Error{Message: callErr.Message, Retryable: callErr.Retryable}
	}
	return tool.Error{Message: err.Error()}
}
