package connector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/an09mous/Extremis-sub003/internal/jsonrpc"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// fakeServer simulates a subprocess tool server on in-memory pipes. The
// handler maps method names to result payloads; noise lines are emitted
// before every response to exercise filtering.
type fakeServer struct {
	clientIn  io.WriteCloser // client writes requests here
	clientOut io.Reader      // client reads responses here
	done      chan struct{}
}

func newFakeServer(t *testing.T, handler func(method string, params json.RawMessage) (any, *jsonrpc.RPCError)) (*fakeServer, *session) {
	t.Helper()

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	srv := &fakeServer{clientIn: reqW, clientOut: respR, done: make(chan struct{})}

	go func() {
		defer close(srv.done)
		defer respW.Close()

		scanner := bufio.NewScanner(reqR)
		for scanner.Scan() {
			var req struct {
				ID     uint64          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				return
			}

			// Operational noise the client must ignore.
			_, _ = respW.Write([]byte("log: handling " + req.Method + "\n\n"))

			result, rpcErr := handler(req.Method, req.Params)
			resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
			raw, _ := json.Marshal(resp)
			_, _ = respW.Write(append(raw, '\n'))
		}
	}()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := newSession(reqW, respR, logger)
	return srv, sess
}

func TestSession_CallRoundTrip(t *testing.T) {
	t.Parallel()

	_, sess := newFakeServer(t, func(method string, _ json.RawMessage) (any, *jsonrpc.RPCError) {
		if method != methodToolsList {
			t.Errorf("unexpected method %q", method)
		}
		return toolsListResult{Tools: []toolInfo{{Name: "search", Description: "find things"}}}, nil
	})
	defer sess.close()

	raw, err := sess.call(context.Background(), methodToolsList, struct{}{})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var res toolsListResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(res.Tools) != 1 || res.Tools[0].Name != "search" {
		t.Errorf("got %+v", res)
	}
}

func TestSession_RPCErrorSurfaced(t *testing.T) {
	t.Parallel()

	_, sess := newFakeServer(t, func(string, json.RawMessage) (any, *jsonrpc.RPCError) {
		return nil, &jsonrpc.RPCError{Code: -32601, Message: "no such method"}
	})
	defer sess.close()

	_, err := sess.call(context.Background(), methodToolsList, struct{}{})
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *jsonrpc.RPCError, got %v", err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("code: got %d", rpcErr.Code)
	}
}

func TestSession_ServerExitFailsPendingCalls(t *testing.T) {
	t.Parallel()

	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := newSession(reqW, respR, logger)

	// Swallow the outgoing request, then close the response stream as if
	// the process exited mid-call.
	go func() {
		buf := make([]byte, 1024)
		_, _ = reqR.Read(buf)
		_ = respW.Close()
	}()

	_, err := sess.call(context.Background(), methodToolsList, struct{}{})
	if err == nil {
		t.Fatal("expected terminal error after server exit")
	}
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSession_ContextCancellation(t *testing.T) {
	t.Parallel()

	reqR, reqW := io.Pipe()
	respR, _ := io.Pipe()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := newSession(reqW, respR, logger)
	defer sess.close()

	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := reqR.Read(buf); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sess.call(ctx, methodToolsList, struct{}{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestContentFromResult(t *testing.T) {
	t.Parallel()

	res := callResult{Content: []contentBlock{
		{Type: "text", Text: "line one"},
		{Type: "text", Text: "line two"},
	}}
	content, err := contentFromResult(res)
	if err != nil {
		t.Fatalf("contentFromResult: %v", err)
	}
	if content.Text != "line one\nline two" {
		t.Errorf("got %q", content.Text)
	}
}

func TestCallErrorFromResult_Retryability(t *testing.T) {
	t.Parallel()

	transient := callErrorFromResult(callResult{
		IsError:   true,
		Retryable: true,
		Content:   []contentBlock{{Type: "text", Text: "busy"}},
	})
	if !transient.Retryable || transient.Message != "busy" {
		t.Errorf("got %+v", transient)
	}

	permanent := callErrorFromResult(callResult{IsError: true})
	if permanent.Retryable {
		t.Error("unmarked failure must not be retryable")
	}
}

func TestConnectorTools_SchemaDecoding(t *testing.T) {
	t.Parallel()

	res := toolsListResult{Tools: []toolInfo{{
		Name:        "search",
		Description: "find things",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}},"required":["q"]}`),
	}}}

	tools, err := connectorTools(res, "github", "github")
	if err != nil {
		t.Fatalf("connectorTools: %v", err)
	}
	ct := tools[0]
	if ct.Name() != "github_search" {
		t.Errorf("Name: got %q", ct.Name())
	}
	if ct.InputSchema.Type != "object" {
		t.Errorf("schema type: got %q", ct.InputSchema.Type)
	}
	prop, ok := ct.InputSchema.Properties["q"]
	if !ok || prop.Type != "string" {
		t.Errorf("property q: got %+v", ct.InputSchema.Properties)
	}
}

func TestStdioConnector_NotStarted(t *testing.T) {
	t.Parallel()

	c := NewStdioConnector("files", "files", StdioSpec{Command: "false"}, nil)
	_, err := c.Call(context.Background(), "read", map[string]tool.Value{})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed before Start, got %v", err)
	}
}
