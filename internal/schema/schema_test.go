package schema

import (
	"strings"
	"testing"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

func searchTool() tool.ConnectorTool {
	return tool.ConnectorTool{
		OriginalName:  "search",
		Description:   "Search repositories",
		ConnectorID:   "github",
		ConnectorName: "github",
		InputSchema: tool.ObjectSchema(map[string]tool.SchemaProperty{
			"query": {Type: "string", Description: "search terms"},
			"limit": {Type: "number"},
			"labels": {
				Type:  "array",
				Items: &tool.SchemaProperty{Type: "string"},
			},
		}, "query"),
	}
}

func undescribedTool() tool.ConnectorTool {
	return tool.ConnectorTool{
		OriginalName:  "ping",
		ConnectorID:   "net",
		ConnectorName: "net",
		InputSchema:   tool.ObjectSchema(nil),
	}
}

func TestOpenAIToolsShape(t *testing.T) {
	t.Parallel()

	decls := OpenAITools([]tool.ConnectorTool{searchTool(), undescribedTool()})
	if len(decls) != 2 {
		t.Fatalf("declarations = %d, want 2", len(decls))
	}
	if decls[0]["type"] != "function" {
		t.Errorf("type = %v, want function", decls[0]["type"])
	}
	fn, ok := decls[0]["function"].(map[string]any)
	if !ok {
		t.Fatalf("function field missing: %v", decls[0])
	}
	if fn["name"] != "github_search" {
		t.Errorf("name = %v, want github_search", fn["name"])
	}
	if fn["description"] != "Search repositories" {
		t.Errorf("description = %v", fn["description"])
	}
	params, ok := fn["parameters"].(map[string]any)
	if !ok {
		t.Fatalf("parameters missing: %v", fn)
	}
	if params["type"] != "object" {
		t.Errorf("parameters type = %v, want object", params["type"])
	}
	req, _ := params["required"].([]any)
	if len(req) != 1 || req[0] != "query" {
		t.Errorf("required = %v, want [query]", params["required"])
	}

	fn2 := decls[1]["function"].(map[string]any)
	if fn2["description"] != "No description available" {
		t.Errorf("fallback description = %v", fn2["description"])
	}
}

func TestAnthropicToolsShape(t *testing.T) {
	t.Parallel()

	decls := AnthropicTools([]tool.ConnectorTool{searchTool()})
	if len(decls) != 1 {
		t.Fatalf("declarations = %d, want 1", len(decls))
	}
	if decls[0]["name"] != "github_search" {
		t.Errorf("name = %v, want github_search", decls[0]["name"])
	}
	if _, ok := decls[0]["input_schema"].(map[string]any); !ok {
		t.Errorf("input_schema missing: %v", decls[0])
	}
}

func TestGeminiToolsShape(t *testing.T) {
	t.Parallel()

	decls := GeminiTools([]tool.ConnectorTool{searchTool(), undescribedTool()})
	if len(decls) != 1 {
		t.Fatalf("wrappers = %d, want 1 function_declarations wrapper", len(decls))
	}
	fns, ok := decls[0]["function_declarations"].([]any)
	if !ok || len(fns) != 2 {
		t.Fatalf("function_declarations = %v", decls[0])
	}
	fn := fns[0].(map[string]any)
	if fn["name"] != "github_search" {
		t.Errorf("name = %v, want github_search", fn["name"])
	}
	params := fn["parameters"].(map[string]any)
	if params["type"] != "OBJECT" {
		t.Errorf("type = %v, want OBJECT", params["type"])
	}
	props := params["properties"].(map[string]any)
	query := props["query"].(map[string]any)
	if query["type"] != "STRING" {
		t.Errorf("query type = %v, want STRING", query["type"])
	}
	if query["description"] != "search terms" {
		t.Errorf("query description = %v", query["description"])
	}
	labels := props["labels"].(map[string]any)
	if labels["type"] != "ARRAY" {
		t.Errorf("labels type = %v, want ARRAY", labels["type"])
	}
	items := labels["items"].(map[string]any)
	if items["type"] != "STRING" {
		t.Errorf("items type = %v, want STRING", items["type"])
	}
}

func TestParseOpenAIToolCall(t *testing.T) {
	t.Parallel()

	set := NewToolSet([]tool.ConnectorTool{searchTool()})
	payload := []byte(`{
		"id": "call_1",
		"type": "function",
		"function": {"name": "github_search", "arguments": "{\"query\": \"golang\", \"limit\": 5}"}
	}`)

	call, ok, err := ParseOpenAIToolCall(payload, set)
	if err != nil {
		t.Fatalf("ParseOpenAIToolCall: %v", err)
	}
	if !ok {
		t.Fatal("tool not resolved")
	}
	if call.ID != "call_1" {
		t.Errorf("ID = %q, want call_1", call.ID)
	}
	if call.OriginalToolName != "search" || call.ConnectorID != "github" {
		t.Errorf("resolution = (%q, %q), want (search, github)", call.OriginalToolName, call.ConnectorID)
	}
	if got, want := call.Arguments["query"], (tool.String("golang")); got != want {
		t.Errorf("query = %#v, want %#v", got, want)
	}
	if got, want := call.Arguments["limit"], (tool.Number(5)); got != want {
		t.Errorf("limit = %#v, want %#v", got, want)
	}
}

func TestParseOpenAIToolCallMalformedArguments(t *testing.T) {
	t.Parallel()

	set := NewToolSet([]tool.ConnectorTool{searchTool()})
	payload := []byte(`{"id": "call_1", "function": {"name": "github_search", "arguments": "{not json"}}`)
	if _, _, err := ParseOpenAIToolCall(payload, set); err == nil {
		t.Fatal("want decode error for malformed arguments string")
	}
}

func TestParseAnthropicToolUse(t *testing.T) {
	t.Parallel()

	set := NewToolSet([]tool.ConnectorTool{searchTool()})
	payload := []byte(`{
		"type": "tool_use",
		"id": "toolu_01",
		"name": "github_search",
		"input": {"query": "golang"}
	}`)

	call, ok, err := ParseAnthropicToolUse(payload, set)
	if err != nil {
		t.Fatalf("ParseAnthropicToolUse: %v", err)
	}
	if !ok {
		t.Fatal("tool not resolved")
	}
	if call.ID != "toolu_01" {
		t.Errorf("ID = %q, want toolu_01", call.ID)
	}
	if call.OriginalToolName != "search" {
		t.Errorf("OriginalToolName = %q, want search", call.OriginalToolName)
	}
}

func TestParseGeminiFunctionCallMintsIDs(t *testing.T) {
	t.Parallel()

	set := NewToolSet([]tool.ConnectorTool{searchTool()})
	payload := []byte(`{"functionCall": {"name": "github_search", "args": {"query": "golang"}}}`)

	first, ok, err := ParseGeminiFunctionCall(payload, set)
	if err != nil || !ok {
		t.Fatalf("ParseGeminiFunctionCall: ok=%v err=%v", ok, err)
	}
	second, ok, err := ParseGeminiFunctionCall(payload, set)
	if err != nil || !ok {
		t.Fatalf("ParseGeminiFunctionCall: ok=%v err=%v", ok, err)
	}
	if first.ID == "" || second.ID == "" {
		t.Fatal("minted IDs must be non-empty")
	}
	if first.ID == second.ID {
		t.Errorf("minted IDs collide: %q", first.ID)
	}
}

func TestParseUnresolvedTool(t *testing.T) {
	t.Parallel()

	set := NewToolSet([]tool.ConnectorTool{searchTool()})
	tests := []struct {
		name    string
		format  Format
		payload string
	}{
		{"openai", FormatOpenAI, `{"id": "c", "function": {"name": "made_up", "arguments": "{}"}}`},
		{"anthropic", FormatAnthropic, `{"type": "tool_use", "id": "c", "name": "made_up", "input": {}}`},
		{"gemini", FormatGemini, `{"functionCall": {"name": "made_up", "args": {}}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			call, ok, err := ParseToolCall(tt.format, []byte(tt.payload), set)
			if err != nil {
				t.Fatalf("ParseToolCall: %v", err)
			}
			if ok {
				t.Error("unknown tool must not resolve")
			}
			if call.ToolName != "made_up" {
				t.Errorf("ToolName = %q, want the emitted name carried through", call.ToolName)
			}
		})
	}
}

func TestParseMalformedPayload(t *testing.T) {
	t.Parallel()

	set := NewToolSet(nil)
	for _, f := range []Format{FormatOpenAI, FormatAnthropic, FormatGemini} {
		if _, _, err := ParseToolCall(f, []byte("{truncated"), set); err == nil {
			t.Errorf("format %s: want decode error", f)
		}
	}
}

func TestOpenAIToolResultMessage(t *testing.T) {
	t.Parallel()

	call := tool.Call{ID: "call_1", ToolName: "github_search"}
	result := tool.Result{CallID: "call_1", Outcome: tool.Success(tool.Content{Text: "3 repos"})}
	msg := OpenAIToolResultMessage(call, result)
	if msg["role"] != "tool" {
		t.Errorf("role = %v, want tool", msg["role"])
	}
	if msg["tool_call_id"] != "call_1" {
		t.Errorf("tool_call_id = %v", msg["tool_call_id"])
	}
	if msg["content"] != "3 repos" {
		t.Errorf("content = %v", msg["content"])
	}
}

func TestAnthropicToolResultMessage(t *testing.T) {
	t.Parallel()

	call := tool.Call{ID: "toolu_01"}
	failed := tool.Result{Outcome: tool.Failure(tool.Error{Message: "connection refused"})}
	msg := AnthropicToolResultMessage(call, failed)
	if msg["role"] != "user" {
		t.Errorf("role = %v, want user", msg["role"])
	}
	blocks := msg["content"].([]any)
	block := blocks[0].(map[string]any)
	if block["type"] != "tool_result" || block["tool_use_id"] != "toolu_01" {
		t.Errorf("block = %v", block)
	}
	if block["is_error"] != true {
		t.Errorf("is_error = %v, want true", block["is_error"])
	}
	if !strings.Contains(block["content"].(string), "connection refused") {
		t.Errorf("content = %v", block["content"])
	}
}

func TestGeminiToolResultMessage(t *testing.T) {
	t.Parallel()

	call := tool.Call{ID: "c", ToolName: "github_search"}

	okMsg := GeminiToolResultMessage(call, tool.Result{Outcome: tool.Success(tool.Content{Text: "done"})})
	parts := okMsg["parts"].([]any)
	fr := parts[0].(map[string]any)["functionResponse"].(map[string]any)
	if fr["name"] != "github_search" {
		t.Errorf("name = %v", fr["name"])
	}
	resp := fr["response"].(map[string]any)
	if resp["output"] != "done" {
		t.Errorf("output = %v", resp["output"])
	}

	errMsg := GeminiToolResultMessage(call, tool.Result{Outcome: tool.Failure(tool.Error{Message: "boom"})})
	parts = errMsg["parts"].([]any)
	fr = parts[0].(map[string]any)["functionResponse"].(map[string]any)
	resp = fr["response"].(map[string]any)
	if resp["error"] != "boom" {
		t.Errorf("error = %v", resp["error"])
	}
	if _, has := resp["output"]; has {
		t.Error("failure response must not carry output")
	}
}
