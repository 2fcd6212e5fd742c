package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// ErrApprovalDenied is returned when a human declines a command.
var ErrApprovalDenied = errors.New("approval denied")

// ApprovalRequester asks a human whether a command may run. Implementations
// belong to the embedding host (TUI prompt, chat message, policy engine).
type ApprovalRequester interface {
	RequestApproval(ctx context.Context, call tool.Call, command string, level Level) (bool, error)
}

// ApprovalRequesterFunc adapts a function to ApprovalRequester.
type ApprovalRequesterFunc func(ctx context.Context, call tool.Call, command string, level Level) (bool, error)

func (f ApprovalRequesterFunc) RequestApproval(ctx context.Context, call tool.Call, command string, level Level) (bool, error) {
	return f(ctx, call, command, level)
}

// CommandGate authorizes tool calls that carry a shell command argument.
// Sandbox-eligible commands pass through, previously approved shapes pass
// through, everything else is escalated to the ApprovalRequester. An
// approval is remembered for the rest of the session as the command's
// derived pattern.
type CommandGate struct {
	store           *PatternStore
	requester       ApprovalRequester
	logger          *slog.Logger
	approvalTimeout time.Duration
}

func NewCommandGate(store *PatternStore, requester ApprovalRequester, logger *slog.Logger, opts ...GateOption) *CommandGate {
	if logger == nil {
		logger = slog.Default()
	}
	g := &CommandGate{store: store, requester: requester, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GateOption configures a CommandGate.
type GateOption func(*CommandGate)

// WithApprovalTimeout bounds how long an approval request may block. Zero
// means the request waits for the caller's context.
func WithApprovalTimeout(d time.Duration) GateOption {
	return func(g *CommandGate) { g.approvalTimeout = d }
}

// Authorize implements the executor's gate contract. Calls without a
// "command" string argument are not shell invocations and pass untouched.
func (g *CommandGate) Authorize(ctx context.Context, call tool.Call) error {
	command, ok := commandArgument(call)
	if !ok {
		return nil
	}

	operators, err := ValidateCommand(command)
	if err != nil {
		g.logger.Warn("command rejected", "tool", call.ToolName, "error", err)
		return fmt.Errorf("command validation failed: %w", err)
	}

	// Classification only sees the first token, so a chained command can
	// hide anything behind a harmless executable. Operators disqualify
	// the sandbox shortcut; these commands always go through the store
	// and the approver.
	level := Classify(command)
	if level.ShouldSandbox() && len(operators) == 0 {
		g.logger.Debug("command sandboxed", "tool", call.ToolName, "level", level.String())
		return nil
	}
	if g.store.IsApproved(command) {
		g.logger.Debug("command approved by session pattern", "tool", call.ToolName, "level", level.String())
		return nil
	}

	if g.requester == nil {
		return fmt.Errorf("%w: no approver available for %s command", ErrApprovalDenied, level)
	}
	if g.approvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.approvalTimeout)
		defer cancel()
	}
	approved, err := g.requester.RequestApproval(ctx, call, command, level)
	if err != nil {
		return fmt.Errorf("request approval: %w", err)
	}
	if !approved {
		g.logger.Info("command declined", "tool", call.ToolName, "level", level.String(), "operators", len(operators))
		return fmt.Errorf("%w: %s command", ErrApprovalDenied, level)
	}
	g.store.Approve(PatternForCommand(command))
	g.logger.Info("command approved", "tool", call.ToolName, "level", level.String())
	return nil
}

// commandArgument extracts the call's shell command, when present.
func commandArgument(call tool.Call) (string, bool) {
	v, ok := call.Arguments["command"]
	if !ok {
		return "", false
	}
	s, ok := v.(tool.String)
	if !ok {
		return "", false
	}
	return string(s), true
}
