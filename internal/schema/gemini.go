package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// GeminiTools renders the tools as a single function_declarations wrapper,
// the only declaration shape the Gemini API accepts. Schema type names are
// upper-cased ("string" becomes "STRING") recursively.
func GeminiTools(tools []tool.ConnectorTool) []map[string]any {
	decls := make([]any, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, map[string]any{
			"name":        t.Name(),
			"description": description(t),
			"parameters":  upperTypes(schemaToMap(t.InputSchema)),
		})
	}
	return []map[string]any{{"function_declarations": decls}}
}

// upperTypes walks a converted schema and upper-cases every "type" value,
// including those under properties and items.
func upperTypes(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			up := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					up[name] = upperTypes(pm)
				} else {
					up[name] = p
				}
			}
			out[k] = up
		case "items":
			if pm, ok := v.(map[string]any); ok {
				out[k] = upperTypes(pm)
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}

// geminiFunctionCall is the wire shape of a functionCall part. Gemini
// assigns no call IDs; one is minted at parse time.
type geminiFunctionCall struct {
	FunctionCall struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
	} `json:"functionCall"`
}

// ParseGeminiFunctionCall parses one functionCall part, minting a fresh
// call ID. ok is false when the name resolves to no advertised tool.
func ParseGeminiFunctionCall(payload []byte, set *ToolSet) (tool.Call, bool, error) {
	var fc geminiFunctionCall
	if err := json.Unmarshal(payload, &fc); err != nil {
		return tool.Call{}, false, fmt.Errorf("schema: decode gemini functionCall: %w", err)
	}
	ct, ok := set.Resolve(fc.FunctionCall.Name)
	if !ok {
		return unresolvedCall(uuid.NewString(), fc.FunctionCall.Name), false, nil
	}
	args := map[string]tool.Value{}
	if len(fc.FunctionCall.Args) > 0 {
		decoded, err := tool.ArgumentsFromJSON(fc.FunctionCall.Args)
		if err != nil {
			return tool.Call{}, false, fmt.Errorf("schema: decode gemini args: %w", err)
		}
		args = decoded
	}
	return newCall(uuid.NewString(), ct, args), true, nil
}

// GeminiToolResultMessage renders a result as a user message holding one
// functionResponse part keyed by the tool's advertised name. Success maps
// to an "output" field, failure to an "error" field.
func GeminiToolResultMessage(call tool.Call, result tool.Result) map[string]any {
	response := map[string]any{}
	if result.Outcome.Succeeded() {
		response["output"] = result.Outcome.ContentForLLM()
	} else {
		response["error"] = result.Outcome.ContentForLLM()
	}
	return map[string]any{
		"role": "user",
		"parts": []any{
			map[string]any{
				"functionResponse": map[string]any{
					"name":     call.ToolName,
					"response": response,
				},
			},
		},
	}
}
