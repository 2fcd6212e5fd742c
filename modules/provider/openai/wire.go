package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
)

// maxResponseSize caps the response body (10 MB). Protects against OOM
// from malformed or huge responses.
const maxResponseSize = 10 * 1024 * 1024

// chatRequest is the chat completions request payload. Tool declarations
// arrive pre-rendered from the schema converter and pass through as-is.
type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []chatMessage    `json:"messages"`
	Tools     []map[string]any `json:"tools,omitempty"`
	MaxTokens int              `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []json.RawMessage `json:"tool_calls,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message struct {
		Content   string            `json:"content"`
		ToolCalls []json.RawMessage `json:"tool_calls,omitempty"`
	} `json:"message"`
	FinishReason *string `json:"finish_reason"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// toMessages converts canonical history to chat completions messages. Tool
// results carry a pre-rendered {role, tool_call_id, content} payload;
// assistant turns carry their raw tool_calls entries untouched.
func toMessages(msgs []orchestrator.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Payload != nil {
			cm := chatMessage{}
			cm.Role, _ = m.Payload["role"].(string)
			cm.Content, _ = m.Payload["content"].(string)
			cm.ToolCallID, _ = m.Payload["tool_call_id"].(string)
			out = append(out, cm)
			continue
		}
		out = append(out, chatMessage{
			Role:      m.Role,
			Content:   m.Content,
			ToolCalls: m.ToolCalls,
		})
	}
	return out
}

// newHTTPRequest creates an authenticated request for the API.
func (p *Provider) newHTTPRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := p.config.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	return httpReq, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxResponseSize))
}
