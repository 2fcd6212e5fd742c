// Package schema translates the canonical tool model to and from the three
// provider wire formats: OpenAI-style function calling, Anthropic-style
// tool_use, and Gemini-style function_declarations. Conversion is a pure
// set of functions keyed by an explicit Format tag; no reflection, no
// provider SDK types.
package schema

import (
	"fmt"
	"time"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// Format identifies a provider wire format.
type Format string

// The fixed set of supported formats.
const (
	FormatOpenAI    Format = "openai"
	FormatAnthropic Format = "anthropic"
	FormatGemini    Format = "gemini"
)

// fallbackDescription is substituted for tools without a description; a
// present/absent distinction never survives conversion.
const fallbackDescription = "No description available"

// Declarations renders tool declarations in the given format. OpenAI and
// Anthropic produce one entry per tool; Gemini produces a single
// function_declarations wrapper.
func Declarations(f Format, tools []tool.ConnectorTool) ([]map[string]any, error) {
	switch f {
	case FormatOpenAI:
		return OpenAITools(tools), nil
	case FormatAnthropic:
		return AnthropicTools(tools), nil
	case FormatGemini:
		return GeminiTools(tools), nil
	default:
		return nil, fmt.Errorf("schema: unknown format %q", f)
	}
}

// ParseToolCall parses a provider tool-invocation payload into a canonical
// call. ok is false when the emitted name resolves to no advertised tool;
// the caller treats that as a hallucinated tool, not a failure, and the
// returned call still carries the emitted ID and name so the caller can
// report it. A decode error is a malformed provider payload and is
// terminal for the round.
func ParseToolCall(f Format, payload []byte, set *ToolSet) (tool.Call, bool, error) {
	switch f {
	case FormatOpenAI:
		return ParseOpenAIToolCall(payload, set)
	case FormatAnthropic:
		return ParseAnthropicToolUse(payload, set)
	case FormatGemini:
		return ParseGeminiFunctionCall(payload, set)
	default:
		return tool.Call{}, false, fmt.Errorf("schema: unknown format %q", f)
	}
}

// ToolResultMessage renders a tool result as the provider-specific message
// to append to the conversation. The content is always the result's
// ContentForLLM form; failures fall back to the error message.
func ToolResultMessage(f Format, call tool.Call, result tool.Result) (map[string]any, error) {
	switch f {
	case FormatOpenAI:
		return OpenAIToolResultMessage(call, result), nil
	case FormatAnthropic:
		return AnthropicToolResultMessage(call, result), nil
	case FormatGemini:
		return GeminiToolResultMessage(call, result), nil
	default:
		return nil, fmt.Errorf("schema: unknown format %q", f)
	}
}

// ToolSet resolves provider-emitted tool names back to the advertised
// connector tools.
type ToolSet struct {
	byName map[string]tool.ConnectorTool
}

// NewToolSet indexes the advertised tools by disambiguated name. Later
// entries win on (already disambiguated, hence unexpected) collisions.
func NewToolSet(tools []tool.ConnectorTool) *ToolSet {
	byName := make(map[string]tool.ConnectorTool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &ToolSet{byName: byName}
}

// Resolve returns the connector tool advertised under name.
func (s *ToolSet) Resolve(name string) (tool.ConnectorTool, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Len returns the number of advertised tools.
func (s *ToolSet) Len() int { return len(s.byName) }

// unresolvedCall carries an unrecognized emitted name back to the caller.
func unresolvedCall(id, name string) tool.Call {
	return tool.Call{ID: id, ToolName: name, RequestedAt: time.Now()}
}

// newCall binds a resolved tool and parsed arguments into a canonical call.
func newCall(id string, ct tool.ConnectorTool, args map[string]tool.Value) tool.Call {
	return tool.Call{
		ID:               id,
		ToolName:         ct.Name(),
		ConnectorID:      ct.ConnectorID,
		OriginalToolName: ct.OriginalName,
		Arguments:        args,
		RequestedAt:      time.Now(),
	}
}

// description returns the tool's description or the fixed fallback.
func description(t tool.ConnectorTool) string {
	if t.Description == "" {
		return fallbackDescription
	}
	return t.Description
}

// schemaToMap walks the canonical schema into plain JSON form, preserving
// type, description, enum, required, items, nested properties and bounds.
func schemaToMap(s tool.Schema) map[string]any {
	out := map[string]any{"type": s.Type}
	if len(s.Properties) > 0 {
		out["properties"] = propertiesToMap(s.Properties)
	}
	if len(s.Required) > 0 {
		out["required"] = toAnySlice(s.Required)
	}
	return out
}

func propertiesToMap(props map[string]tool.SchemaProperty) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		out[name] = propertyToMap(p)
	}
	return out
}

func propertyToMap(p tool.SchemaProperty) map[string]any {
	out := map[string]any{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		out["enum"] = toAnySlice(p.Enum)
	}
	if p.Items != nil {
		out["items"] = propertyToMap(*p.Items)
	}
	if len(p.Properties) > 0 {
		out["properties"] = propertiesToMap(p.Properties)
	}
	if len(p.Required) > 0 {
		out["required"] = toAnySlice(p.Required)
	}
	if p.Minimum != nil {
		out["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		out["maximum"] = *p.Maximum
	}
	if p.MinLength != nil {
		out["minLength"] = *p.MinLength
	}
	if p.MaxLength != nil {
		out["maxLength"] = *p.MaxLength
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
