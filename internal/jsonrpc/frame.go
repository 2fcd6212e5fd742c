// Package jsonrpc implements the newline-delimited JSON-RPC 2.0 framing
// used to talk to subprocess tool servers over their standard streams.
// The line buffer tolerates human-readable log noise interleaved with
// protocol frames; everything that is not a JSON-looking line is dropped.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
)

// Version is the JSON-RPC protocol version in every frame.
const Version = "2.0"

// ErrDecode marks an accepted protocol line that failed to decode. Unlike
// log noise, this is a hard protocol error for the connection.
var ErrDecode = errors.New("jsonrpc: malformed frame")

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Notification is a JSON-RPC 2.0 notification (no ID, no response).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a failed response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// IDCounter mints monotonically increasing request IDs. Safe for
// concurrent use. The zero value is ready.
type IDCounter struct {
	n atomic.Uint64
}

// Next returns the next request ID, starting at 1.
func (c *IDCounter) Next() uint64 { return c.n.Add(1) }

// NewRequest builds a request frame with the given ID.
func NewRequest(id uint64, method string, params any) *Request {
	return &Request{JSONRPC: Version, ID: id, Method: method, Params: params}
}

// EncodeFrame serializes a frame and appends the newline delimiter.
func EncodeFrame(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: encoding frame: %w", err)
	}
	return append(raw, '\n'), nil
}

// DecodeResponse parses an accepted protocol line as a response frame.
// A response has an id; frames without one are notifications and yield
// (nil, false, nil).
func DecodeResponse(line []byte) (*Response, bool, error) {
	var probe struct {
		ID     *uint64 `json:"id"`
		Method string  `json:"method"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if probe.ID == nil || probe.Method != "" {
		return nil, false, nil
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &resp, true, nil
}
