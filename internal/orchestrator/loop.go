// Package orchestrator drives the multi-round tool-calling conversation: it
// sends history to a provider, executes the tool calls it emits, threads
// the results back, and repeats until the model answers in plain text or
// the round cap is reached. The loop is provider-agnostic; wire formats
// live entirely behind the schema converter and the Provider interface.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/an09mous/Extremis-sub003/internal/connector"
	"github.com/an09mous/Extremis-sub003/internal/executor"
	"github.com/an09mous/Extremis-sub003/internal/schema"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// DefaultMaxRounds bounds the loop when the caller does not configure a
// cap.
const DefaultMaxRounds = 20

// State is the loop's terminal condition.
type State string

const (
	StateComplete          State = "complete"
	StateRoundLimitReached State = "round_limit_reached"
	StateFailed            State = "failed"
)

// RunResult is the outcome of one Run.
type RunResult struct {
	// FinalText is the model's final answer.
	FinalText string

	// Rounds records every generation that produced tool calls.
	Rounds []tool.ExecutionRound

	// State reports how the loop terminated.
	State State
}

// Loop coordinates provider generations with tool execution.
type Loop struct {
	provider  Provider
	executor  *executor.Executor
	registry  *connector.Registry
	maxRounds int
	logger    *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxRounds overrides the round cap.
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxRounds = n
		}
	}
}

// WithLogger overrides the loop's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(provider Provider, exec *executor.Executor, registry *connector.Registry, opts ...Option) *Loop {
	l := &Loop{
		provider:  provider,
		executor:  exec,
		registry:  registry,
		maxRounds: DefaultMaxRounds,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives the conversation until the model answers without tool calls,
// the round cap trips, or the context is cancelled. Per-call failures are
// data and flow back to the model; only provider errors, malformed
// payloads and cancellation are hard errors.
func (l *Loop) Run(ctx context.Context, history []Message) (RunResult, error) {
	format := l.provider.Format()
	var rounds []tool.ExecutionRound

	for round := 0; round < l.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return RunResult{Rounds: rounds, State: StateFailed}, fmt.Errorf("orchestrator: cancelled before round %d: %w", round+1, err)
		}

		tools, err := l.registry.Tools(ctx)
		if err != nil {
			l.logger.Warn("partial tool discovery", "error", err)
		}
		declarations, err := schema.Declarations(format, tools)
		if err != nil {
			return RunResult{Rounds: rounds, State: StateFailed}, err
		}
		set := schema.NewToolSet(tools)

		gen, err := l.provider.Generate(ctx, GenerateRequest{Messages: history, Tools: declarations})
		if err != nil {
			return RunResult{Rounds: rounds, State: StateFailed}, fmt.Errorf("orchestrator: generate: %w", err)
		}

		if len(gen.ToolCalls) == 0 {
			return RunResult{FinalText: gen.Content, Rounds: rounds, State: StateComplete}, nil
		}

		var resolved, unresolved []tool.Call
		for _, raw := range gen.ToolCalls {
			call, ok, err := schema.ParseToolCall(format, raw, set)
			if err != nil {
				return RunResult{Rounds: rounds, State: StateFailed}, err
			}
			if ok {
				resolved = append(resolved, call)
			} else {
				unresolved = append(unresolved, call)
			}
		}

		if len(resolved) == 0 {
			// Every call names a tool that does not exist. Nothing is
			// executed; the model gets one corrective round without tools.
			l.logger.Info("all tool calls unresolved", "count", len(unresolved))
			history = filterEmptyAssistant(history)
			history = append(history, correctiveMessage(unresolved))
			final, err := l.provider.Generate(ctx, GenerateRequest{Messages: history})
			if err != nil {
				return RunResult{Rounds: rounds, State: StateFailed}, fmt.Errorf("orchestrator: fallback generate: %w", err)
			}
			return RunResult{FinalText: final.Content, Rounds: rounds, State: StateComplete}, nil
		}

		history = append(history, Message{
			Role:      RoleAssistant,
			Content:   gen.Content,
			ToolCalls: gen.ToolCalls,
		})

		results := l.executor.ExecuteAll(ctx, resolved)
		for _, call := range unresolved {
			results = append(results, tool.Result{
				CallID:   call.ID,
				ToolName: call.ToolName,
				Outcome: tool.Failure(tool.Error{
					Message: fmt.Sprintf("tool %q is not available", call.ToolName),
				}),
			})
		}

		calls := append(append([]tool.Call{}, resolved...), unresolved...)
		for i, result := range results {
			msg, err := schema.ToolResultMessage(format, calls[i], result)
			if err != nil {
				return RunResult{Rounds: rounds, State: StateFailed}, err
			}
			history = append(history, Message{Role: RoleTool, Payload: msg})
		}

		rounds = append(rounds, tool.NewExecutionRound(calls, results, gen.Content))
		l.logger.Debug("round executed", "round", round+1, "calls", len(calls))
	}

	if len(rounds) == 0 {
		return RunResult{Rounds: rounds, State: StateRoundLimitReached}, nil
	}

	// Cap reached after at least one executed round: ask for a complete
	// answer from everything gathered rather than truncating silently.
	history = filterEmptyAssistant(history)
	history = append(history, Message{
		Role:    RoleUser,
		Content: "The tool-use limit has been reached. Produce your complete final answer from the information gathered so far, without requesting any more tools.",
	})
	final, err := l.provider.Generate(ctx, GenerateRequest{Messages: history})
	if err != nil {
		return RunResult{Rounds: rounds, State: StateFailed}, fmt.Errorf("orchestrator: summarization generate: %w", err)
	}
	return RunResult{FinalText: final.Content, Rounds: rounds, State: StateRoundLimitReached}, nil
}

// filterEmptyAssistant drops assistant turns with neither text nor tool
// calls. Some providers reject an empty assistant message outright.
func filterEmptyAssistant(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.IsEmptyAssistant() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// correctiveMessage tells the model which tools do not exist and instructs
// it to answer from its own knowledge.
func correctiveMessage(unresolved []tool.Call) Message {
	names := make([]string, 0, len(unresolved))
	seen := map[string]struct{}{}
	for _, c := range unresolved {
		if _, dup := seen[c.ToolName]; dup {
			continue
		}
		seen[c.ToolName] = struct{}{}
		names = append(names, c.ToolName)
	}
	return Message{
		Role: RoleUser,
		Content: fmt.Sprintf(
			"The following tools do not exist: %s. Do not attempt to call any tools again. Answer the request directly from your own knowledge.",
			strings.Join(names, ", ")),
	}
}
