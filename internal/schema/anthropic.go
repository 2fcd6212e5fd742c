package schema

import (
	"encoding/json"
	"fmt"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// AnthropicTools renders the tools as Anthropic tool declarations.
func AnthropicTools(tools []tool.ConnectorTool) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":         t.Name(),
			"description":  description(t),
			"input_schema": schemaToMap(t.InputSchema),
		})
	}
	return out
}

// anthropicToolUse is the wire shape of a tool_use content block.
type anthropicToolUse struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ParseAnthropicToolUse parses one tool_use content block. ok is false when
// the block's name resolves to no advertised tool.
func ParseAnthropicToolUse(payload []byte, set *ToolSet) (tool.Call, bool, error) {
	var tu anthropicToolUse
	if err := json.Unmarshal(payload, &tu); err != nil {
		return tool.Call{}, false, fmt.Errorf("schema: decode anthropic tool_use: %w", err)
	}
	ct, ok := set.Resolve(tu.Name)
	if !ok {
		return unresolvedCall(tu.ID, tu.Name), false, nil
	}
	args := map[string]tool.Value{}
	if len(tu.Input) > 0 {
		decoded, err := tool.ArgumentsFromJSON(tu.Input)
		if err != nil {
			return tool.Call{}, false, fmt.Errorf("schema: decode anthropic input: %w", err)
		}
		args = decoded
	}
	return newCall(tu.ID, ct, args), true, nil
}

// AnthropicToolResultMessage renders a result as a user message holding a
// single tool_result block. Failures set is_error.
func AnthropicToolResultMessage(call tool.Call, result tool.Result) map[string]any {
	block := map[string]any{
		"type":        "tool_result",
		"tool_use_id": call.ID,
		"content":     result.Outcome.ContentForLLM(),
	}
	if !result.Outcome.Succeeded() {
		block["is_error"] = true
	}
	return map[string]any{
		"role":    "user",
		"content": []any{block},
	}
}
