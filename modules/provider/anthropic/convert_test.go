package anthropic

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
	"github.com/an09mous/Extremis-sub003/internal/schema"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitSystemMessages(t *testing.T) {
	t.Parallel()

	msgs := []orchestrator.Message{
		{Role: orchestrator.RoleSystem, Content: "be terse"},
		{Role: orchestrator.RoleSystem, Content: "use tools"},
		{Role: orchestrator.RoleUser, Content: "hi"},
	}
	system, rest := splitSystemMessages(msgs)
	if len(system) != 2 {
		t.Fatalf("system = %d, want 2", len(system))
	}
	if system[0].Text != "be terse" || system[1].Text != "use tools" {
		t.Errorf("system = %+v", system)
	}
	if len(rest) != 1 || rest[0].Role != orchestrator.RoleUser {
		t.Errorf("rest = %+v", rest)
	}
}

func TestConvertRequestShape(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.defaults()

	req := orchestrator.GenerateRequest{
		Messages: []orchestrator.Message{
			{Role: orchestrator.RoleSystem, Content: "system text"},
			{Role: orchestrator.RoleUser, Content: "search for golang"},
			{
				Role:    orchestrator.RoleAssistant,
				Content: "searching",
				ToolCalls: []json.RawMessage{
					json.RawMessage(`{"type":"tool_use","id":"toolu_1","name":"github_search","input":{"query":"golang"}}`),
				},
			},
			{Role: orchestrator.RoleTool, Payload: map[string]any{
				"role": "user",
				"content": []any{map[string]any{
					"type":        "tool_result",
					"tool_use_id": "toolu_1",
					"content":     "3 repos",
				}},
			}},
		},
		Tools: schema.AnthropicTools([]tool.ConnectorTool{{
			OriginalName:  "search",
			Description:   "Search repositories",
			ConnectorID:   "github",
			ConnectorName: "github",
			InputSchema:   tool.ObjectSchema(map[string]tool.SchemaProperty{"query": {Type: "string"}}, "query"),
		}}),
	}

	params, err := convertRequest(req, &cfg, testLogger())
	if err != nil {
		t.Fatalf("convertRequest: %v", err)
	}
	if len(params.System) != 1 || params.System[0].Text != "system text" {
		t.Errorf("System = %+v", params.System)
	}
	// user, assistant, grouped tool results.
	if len(params.Messages) != 3 {
		t.Fatalf("Messages = %d, want 3", len(params.Messages))
	}
	if len(params.Tools) != 1 {
		t.Fatalf("Tools = %d, want 1", len(params.Tools))
	}
	if got := params.Tools[0].OfTool.Name; got != "github_search" {
		t.Errorf("tool name = %q", got)
	}
	if params.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", params.MaxTokens)
	}
}

func TestConvertMessagesGroupsToolResults(t *testing.T) {
	t.Parallel()

	payload := func(id string) map[string]any {
		return map[string]any{
			"role": "user",
			"content": []any{map[string]any{
				"type":        "tool_result",
				"tool_use_id": id,
				"content":     "ok",
			}},
		}
	}
	msgs := []orchestrator.Message{
		{Role: orchestrator.RoleTool, Payload: payload("t1")},
		{Role: orchestrator.RoleTool, Payload: payload("t2")},
		{Role: orchestrator.RoleUser, Content: "continue"},
	}
	converted, err := convertMessages(msgs, testLogger())
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(converted) != 2 {
		t.Fatalf("messages = %d, want tool results grouped into one", len(converted))
	}
	if len(converted[0].Content) != 2 {
		t.Errorf("grouped blocks = %d, want 2", len(converted[0].Content))
	}
}

func TestConvertAssistantMessageEmptyInput(t *testing.T) {
	t.Parallel()

	msg := orchestrator.Message{
		Role: orchestrator.RoleAssistant,
		ToolCalls: []json.RawMessage{
			json.RawMessage(`{"type":"tool_use","id":"t1","name":"local_echo"}`),
		},
	}
	converted, err := convertAssistantMessage(msg)
	if err != nil {
		t.Fatalf("convertAssistantMessage: %v", err)
	}
	if len(converted.Content) != 1 {
		t.Fatalf("blocks = %d, want 1", len(converted.Content))
	}
}

func TestToolResultBlockMalformed(t *testing.T) {
	t.Parallel()

	if _, err := toolResultBlock(map[string]any{"role": "user"}); err == nil {
		t.Error("want error for payload without content blocks")
	}
}

func TestConvertInputSchemaPreservesExtras(t *testing.T) {
	t.Parallel()

	param := convertInputSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"q": map[string]any{"type": "string"}},
		"required":   []any{"q"},
		"$defs":      map[string]any{},
	})
	if param.Properties == nil {
		t.Error("properties dropped")
	}
	if len(param.Required) != 1 || param.Required[0] != "q" {
		t.Errorf("required = %v", param.Required)
	}
	if _, ok := param.ExtraFields["$defs"]; !ok {
		t.Error("extra schema fields dropped")
	}
}
