package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/an09mous/Extremis-sub003/internal/jsonrpc"
	"github.com/an09mous/Extremis-sub003/internal/security"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// ErrInsecureURL is returned for endpoint URLs that are not HTTPS or have
// no host. The check runs at construction, before any connection attempt.
var ErrInsecureURL = errors.New("connector: endpoint must be an https URL with a host")

// HTTPSpec describes an HTTP tool-server endpoint.
type HTTPSpec struct {
	URL     string
	Headers map[string]string
}

// HTTPConnector talks JSON-RPC to a remote tool server over HTTPS POST.
type HTTPConnector struct {
	id     string
	name   string
	spec   HTTPSpec
	client *http.Client
	ids    jsonrpc.IDCounter
}

// NewHTTPConnector validates the endpoint and creates the connector.
// The httpClient may be nil; http.DefaultClient is used then.
func NewHTTPConnector(id, name string, spec HTTPSpec, httpClient *http.Client) (*HTTPConnector, error) {
	if err := ValidateEndpoint(spec.URL); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPConnector{id: id, name: name, spec: spec, client: httpClient}, nil
}

// ValidateEndpoint rejects non-HTTPS URLs and URLs without a host.
func ValidateEndpoint(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsecureURL, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInsecureURL, rawURL)
	}
	return nil
}

// ID returns the connector identity.
func (c *HTTPConnector) ID() string { return c.id }

// Name returns the human-facing connector name.
func (c *HTTPConnector) Name() string { return c.name }

// Tools lists the server's tools.
func (c *HTTPConnector) Tools(ctx context.Context) ([]tool.ConnectorTool, error) {
	raw, err := c.post(ctx, methodToolsList, struct{}{})
	if err != nil {
		return nil, err
	}
	var res toolsListResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("connector %s: tools/list result: %w", c.id, err)
	}
	return connectorTools(res, c.id, c.name)
}

// Call invokes a tool by original name.
func (c *HTTPConnector) Call(ctx context.Context, originalName string, args map[string]tool.Value) (*tool.Content, error) {
	raw, err := c.post(ctx, methodToolsCall, callParams{
		Name:      originalName,
		Arguments: tool.ArgumentsToAny(args),
	})
	if err != nil {
		return nil, err
	}
	var res callResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("connector %s: tools/call result: %w", c.id, err)
	}
	if res.IsError {
		return nil, callErrorFromResult(res)
	}
	return contentFromResult(res)
}

// Close is a no-op for the HTTP transport.
func (c *HTTPConnector) Close() error { return nil }

func (c *HTTPConnector) post(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(jsonrpc.NewRequest(c.ids.Next(), method, params))
	if err != nil {
		return nil, fmt.Errorf("connector %s: encoding request: %w", c.id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.spec.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("connector %s: building request: %w", c.id, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.spec.Headers {
		req.Header.Set(k, v)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connector %s: %w", c.id, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connector %s: server returned %s", c.id, httpResp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, security.DefaultMaxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("connector %s: reading response: %w", c.id, err)
	}
	if err := security.ValidateMessageSize(raw, 0); err != nil {
		return nil, fmt.Errorf("connector %s: %w", c.id, err)
	}
	if err := security.ValidateJSONDepth(raw, 0); err != nil {
		return nil, fmt.Errorf("connector %s: %w", c.id, err)
	}

	var resp jsonrpc.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("connector %s: %w: %v", c.id, jsonrpc.ErrDecode, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}
