package schema

import (
	"encoding/json"
	"fmt"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// OpenAITools renders the tools as OpenAI function declarations.
func OpenAITools(tools []tool.ConnectorTool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": description(t),
				"parameters":  schemaToMap(t.InputSchema),
			},
		})
	}
	return out
}

// openaiToolCall is the wire shape of one entry in an assistant message's
// tool_calls array. Arguments arrive as a JSON-encoded string, not an
// inline object.
type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ParseOpenAIToolCall parses one OpenAI tool_calls entry. ok is false when
// the function name resolves to no advertised tool.
func ParseOpenAIToolCall(payload []byte, set *ToolSet) (tool.Call, bool, error) {
	var tc openaiToolCall
	if err := json.Unmarshal(payload, &tc); err != nil {
		return tool.Call{}, false, fmt.Errorf("schema: decode openai tool call: %w", err)
	}
	ct, ok := set.Resolve(tc.Function.Name)
	if !ok {
		return unresolvedCall(tc.ID, tc.Function.Name), false, nil
	}
	args := map[string]tool.Value{}
	if tc.Function.Arguments != "" {
		decoded, err := tool.ArgumentsFromJSON([]byte(tc.Function.Arguments))
		if err != nil {
			return tool.Call{}, false, fmt.Errorf("schema: decode openai arguments: %w", err)
		}
		args = decoded
	}
	return newCall(tc.ID, ct, args), true, nil
}

// OpenAIToolResultMessage renders a result as a role "tool" message keyed
// by the originating call ID.
func OpenAIToolResultMessage(call tool.Call, result tool.Result) map[string]any {
	return map[string]any{
		"role":         "tool",
		"tool_call_id": call.ID,
		"content":      result.Outcome.ContentForLLM(),
	}
}
