package anthropic

import (
	"encoding/json"
	"fmt"
	"log/slog"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
)

// wireToolUse is the tool_use payload shape shared with the schema
// converter: raw provider JSON in, raw provider JSON out.
type wireToolUse struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// convertRequest transforms a generation request into Anthropic SDK
// parameters. Leading system messages are extracted into the dedicated
// System field.
func convertRequest(req orchestrator.GenerateRequest, cfg *Config, logger *slog.Logger) (sdkanthropic.MessageNewParams, error) {
	system, messages := splitSystemMessages(req.Messages)

	converted, err := convertMessages(messages, logger)
	if err != nil {
		return sdkanthropic.MessageNewParams{}, err
	}

	params := sdkanthropic.MessageNewParams{
		Model:     sdkanthropic.Model(cfg.Model),
		MaxTokens: int64(cfg.MaxTokens),
		Messages:  converted,
		System:    system,
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return sdkanthropic.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// splitSystemMessages extracts leading system messages into Anthropic's
// System parameter format and returns the remaining messages.
func splitSystemMessages(msgs []orchestrator.Message) ([]sdkanthropic.TextBlockParam, []orchestrator.Message) {
	var system []sdkanthropic.TextBlockParam
	var idx int
	for idx = 0; idx < len(msgs); idx++ {
		if msgs[idx].Role != orchestrator.RoleSystem {
			break
		}
		system = append(system, sdkanthropic.TextBlockParam{
			Text: msgs[idx].Content,
		})
	}
	return system, msgs[idx:]
}

// convertMessages transforms canonical messages into Anthropic SDK message
// params. Consecutive tool-result messages are grouped into a single user
// message (Anthropic requires all tool results for a turn in one message).
// Non-leading system messages cannot be expressed and are dropped with a
// warning.
func convertMessages(msgs []orchestrator.Message, logger *slog.Logger) ([]sdkanthropic.MessageParam, error) {
	var result []sdkanthropic.MessageParam

	for i := 0; i < len(msgs); {
		msg := msgs[i]

		switch msg.Role {
		case orchestrator.RoleTool:
			var blocks []sdkanthropic.ContentBlockParamUnion
			for i < len(msgs) && msgs[i].Role == orchestrator.RoleTool {
				block, err := toolResultBlock(msgs[i].Payload)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, block)
				i++
			}
			result = append(result, sdkanthropic.MessageParam{
				Role:    sdkanthropic.MessageParamRoleUser,
				Content: blocks,
			})

		case orchestrator.RoleAssistant:
			converted, err := convertAssistantMessage(msg)
			if err != nil {
				return nil, err
			}
			result = append(result, converted)
			i++

		case orchestrator.RoleUser:
			result = append(result, sdkanthropic.NewUserMessage(
				sdkanthropic.NewTextBlock(msg.Content),
			))
			i++

		case orchestrator.RoleSystem:
			if logger != nil {
				logger.Warn("dropping non-leading system message; the Messages API only supports system text at the start",
					"index", i,
				)
			}
			i++

		default:
			i++
		}
	}

	return result, nil
}

// toolResultBlock rebuilds a tool_result block from the pre-rendered wire
// payload produced by the schema converter.
func toolResultBlock(payload map[string]any) (sdkanthropic.ContentBlockParamUnion, error) {
	blocks, ok := payload["content"].([]any)
	if !ok || len(blocks) == 0 {
		return sdkanthropic.ContentBlockParamUnion{}, fmt.Errorf("anthropic: tool result payload has no content blocks")
	}
	block, ok := blocks[0].(map[string]any)
	if !ok {
		return sdkanthropic.ContentBlockParamUnion{}, fmt.Errorf("anthropic: malformed tool result block")
	}

	id, _ := block["tool_use_id"].(string)
	content, _ := block["content"].(string)
	isError, _ := block["is_error"].(bool)
	return sdkanthropic.NewToolResultBlock(id, content, isError), nil
}

// convertAssistantMessage converts an assistant turn, including any raw
// tool_use payloads, into an assistant message with mixed content blocks.
func convertAssistantMessage(msg orchestrator.Message) (sdkanthropic.MessageParam, error) {
	var blocks []sdkanthropic.ContentBlockParamUnion

	if msg.Content != "" {
		blocks = append(blocks, sdkanthropic.NewTextBlock(msg.Content))
	}

	for _, raw := range msg.ToolCalls {
		var tu wireToolUse
		if err := json.Unmarshal(raw, &tu); err != nil {
			return sdkanthropic.MessageParam{}, fmt.Errorf("anthropic: decoding tool_use payload: %w", err)
		}
		// Raw JSON passes through: json.RawMessage implements
		// json.Marshaler so the SDK serializes it without double-encoding.
		input := any(tu.Input)
		if len(tu.Input) == 0 {
			input = json.RawMessage("{}")
		}
		blocks = append(blocks, sdkanthropic.NewToolUseBlock(tu.ID, input, tu.Name))
	}

	return sdkanthropic.NewAssistantMessage(blocks...), nil
}

// convertTools transforms pre-rendered tool declarations into SDK tool
// params.
func convertTools(decls []map[string]any) ([]sdkanthropic.ToolUnionParam, error) {
	result := make([]sdkanthropic.ToolUnionParam, 0, len(decls))
	for _, d := range decls {
		name, _ := d["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("anthropic: tool declaration without a name")
		}
		t := &sdkanthropic.ToolParam{Name: name}
		if desc, _ := d["description"].(string); desc != "" {
			t.Description = sdkanthropic.String(desc)
		}
		if raw, ok := d["input_schema"].(map[string]any); ok {
			t.InputSchema = convertInputSchema(raw)
		}
		result = append(result, sdkanthropic.ToolUnionParam{OfTool: t})
	}
	return result, nil
}

// convertInputSchema converts a JSON Schema map into the SDK's
// ToolInputSchemaParam. Fields beyond "properties" and "required" are
// preserved via ExtraFields.
func convertInputSchema(full map[string]any) sdkanthropic.ToolInputSchemaParam {
	schema := make(map[string]any, len(full))
	for k, v := range full {
		schema[k] = v
	}

	param := sdkanthropic.ToolInputSchemaParam{}

	if props, ok := schema["properties"]; ok {
		param.Properties = props
		delete(schema, "properties")
	}
	if req, ok := schema["required"]; ok {
		if arr, ok := req.([]any); ok {
			strs := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					strs = append(strs, s)
				}
			}
			param.Required = strs
		}
		delete(schema, "required")
	}
	// "type" is auto-set to "object" by the SDK.
	delete(schema, "type")

	if len(schema) > 0 {
		param.ExtraFields = schema
	}

	return param
}

// convertResponse transforms an SDK Message into a Generation, re-encoding
// tool_use blocks as raw wire payloads for the schema converter to parse.
func convertResponse(msg *sdkanthropic.Message) (orchestrator.Generation, error) {
	var gen orchestrator.Generation

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case sdkanthropic.TextBlock:
			if gen.Content != "" {
				gen.Content += "\n"
			}
			gen.Content += v.Text
		case sdkanthropic.ToolUseBlock:
			raw, err := json.Marshal(wireToolUse{
				Type:  "tool_use",
				ID:    v.ID,
				Name:  v.Name,
				Input: json.RawMessage(v.Input),
			})
			if err != nil {
				return orchestrator.Generation{}, fmt.Errorf("anthropic: encoding tool_use payload: %w", err)
			}
			gen.ToolCalls = append(gen.ToolCalls, raw)
		}
	}

	return gen, nil
}
