package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/an09mous/Extremis-sub003/internal/schema"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of the canonical conversation history. Tool results
// are stored pre-rendered in the active provider's wire shape (Payload);
// all other turns carry role and text.
type Message struct {
	Role    string
	Content string

	// ToolCalls holds the raw provider tool-invocation payloads emitted
	// on an assistant turn.
	ToolCalls []json.RawMessage

	// Payload, when non-nil, is a provider-rendered message that replaces
	// the role/content form on the wire.
	Payload map[string]any
}

// IsEmptyAssistant reports whether the message is an assistant turn with
// neither text nor tool calls. Such turns must never be sent to a
// provider.
func (m Message) IsEmptyAssistant() bool {
	return m.Role == RoleAssistant && m.Content == "" && len(m.ToolCalls) == 0 && m.Payload == nil
}

// GenerateRequest is one provider round trip. Tools is nil when the loop
// withholds tool use for a fallback round.
type GenerateRequest struct {
	Messages []Message
	Tools    []map[string]any
}

// Generation is the provider's answer: assistant text plus zero or more
// raw tool-invocation payloads in the provider's own wire shape.
type Generation struct {
	Content   string
	ToolCalls []json.RawMessage
}

// Provider is one model backend. Implementations translate the canonical
// history to their wire format; the loop never sees provider SDK types.
type Provider interface {
	// Format identifies the wire format the provider emits and consumes.
	Format() schema.Format

	// Generate runs one model turn.
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
}
