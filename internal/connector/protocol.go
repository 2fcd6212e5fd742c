package connector

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// Method names of the tool-server protocol.
const (
	methodInitialize = "initialize"
	methodToolsList  = "tools/list"
	methodToolsCall  = "tools/call"
)

// protocolVersion is sent during the initialize handshake.
const protocolVersion = "2025-03-26"

type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    struct{}   `json:"capabilities"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type toolsListResult struct {
	Tools []toolInfo `json:"tools"`
}

type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type callResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`

	// Retryable is an optional server hint that the failure is transient.
	Retryable bool `json:"retryable,omitempty"`
}

type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// connectorTools converts a tools/list result into canonical descriptors
// bound to the given connector identity.
func connectorTools(res toolsListResult, connectorID, connectorName string) ([]tool.ConnectorTool, error) {
	tools := make([]tool.ConnectorTool, 0, len(res.Tools))
	for _, info := range res.Tools {
		var schema tool.Schema
		if len(info.InputSchema) > 0 {
			if err := json.Unmarshal(info.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("connector %s: tool %s schema: %w", connectorID, info.Name, err)
			}
		}
		tools = append(tools, tool.ConnectorTool{
			OriginalName:  info.Name,
			Description:   info.Description,
			InputSchema:   schema,
			ConnectorID:   connectorID,
			ConnectorName: connectorName,
		})
	}
	return tools, nil
}

// contentFromResult flattens a call result into canonical content.
// Text blocks are joined; the first image block is carried as image bytes.
func contentFromResult(res callResult) (*tool.Content, error) {
	var texts []string
	content := &tool.Content{}
	for _, block := range res.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "image":
			if len(content.Image) == 0 && block.Data != "" {
				raw, err := base64.StdEncoding.DecodeString(block.Data)
				if err != nil {
					return nil, fmt.Errorf("connector: image block: %w", err)
				}
				content.Image = raw
				content.ImageMIMEType = block.MimeType
			}
		case "resource":
			texts = append(texts, "[resource: "+block.MimeType+"]")
		}
	}
	content.Text = strings.Join(texts, "\n")
	return content, nil
}

// callErrorFromResult renders a failed call result into a *CallError.
// The failure is retryable only when the server marks it so.
func callErrorFromResult(res callResult) *CallError {
	var texts []string
	for _, block := range res.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	msg := strings.Join(texts, "\n")
	if msg == "" {
		msg = "tool reported an error"
	}
	return &CallError{Message: msg, Retryable: res.Retryable}
}
