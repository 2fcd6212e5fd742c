package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/an09mous/Extremis-sub003/internal/jsonrpc"
	"github.com/an09mous/Extremis-sub003/internal/security"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// clientName identifies this client during the initialize handshake.
const clientName = "toolgate"

// StdioSpec describes a subprocess tool server.
type StdioSpec struct {
	Command string
	Args    []string
	Env     map[string]string
}

// StdioConnector talks to a subprocess tool server over its standard
// streams using newline-delimited JSON-RPC.
type StdioConnector struct {
	id     string
	name   string
	spec   StdioSpec
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	session *session
}

// NewStdioConnector creates a connector for the given subprocess spec.
// Start must be called before Tools or Call.
func NewStdioConnector(id, name string, spec StdioSpec, logger *slog.Logger) *StdioConnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioConnector{
		id:     id,
		name:   name,
		spec:   spec,
		logger: logger.With("component", "connector.stdio", "connector", id),
	}
}

// ID returns the connector identity.
func (c *StdioConnector) ID() string { return c.id }

// Name returns the human-facing connector name.
func (c *StdioConnector) Name() string { return c.name }

// Start spawns the subprocess and performs the initialize handshake.
func (c *StdioConnector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, c.spec.Command, c.spec.Args...)
	cmd.Env = os.Environ()
	for k, v := range c.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("connector %s: stdin: %w", c.id, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("connector %s: stdout: %w", c.id, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("connector %s: starting %q: %w", c.id, c.spec.Command, err)
	}

	sess := newSession(stdin, stdout, c.logger)
	c.cmd = cmd
	c.session = sess

	// Reap the process when the read loop ends so it never zombies.
	go func() {
		<-sess.done
		_ = cmd.Wait()
	}()

	params := initializeParams{ProtocolVersion: protocolVersion}
	params.ClientInfo = clientInfo{Name: clientName, Version: "1"}
	if _, err := sess.call(ctx, methodInitialize, params); err != nil {
		_ = sess.close()
		c.session = nil
		c.cmd = nil
		return fmt.Errorf("connector %s: initialize: %w", c.id, err)
	}
	return nil
}

// Tools lists the server's tools.
func (c *StdioConnector) Tools(ctx context.Context) ([]tool.ConnectorTool, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}

	raw, err := sess.call(ctx, methodToolsList, struct{}{})
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
func (c *StdioConnector) Call(ctx context.Context, originalName string, args map[string]tool.Value) (*tool.Content, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}

	raw, err := sess.call(ctx, methodToolsCall, callParams{
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

// Close shuts down the session and the subprocess.
func (c *StdioConnector) Close() error {
	c.mu.Lock()
	sess := c.session
	cmd := c.cmd
	c.session = nil
	c.cmd = nil
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	err := sess.close()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	return err
}

func (c *StdioConnector) currentSession() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, fmt.Errorf("connector %s: %w", c.id, ErrClosed)
	}
	return c.session, nil
}

// session owns the framed request/response exchange over a pair of byte
// streams. It is separated from process management so tests can drive it
// with in-memory pipes.
type session struct {
	w      io.WriteCloser
	logger *slog.Logger
	ids    jsonrpc.IDCounter

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *jsonrpc.Response
	err     error
	closed  bool

	done chan struct{}
}

func newSession(w io.WriteCloser, r io.Reader, logger *slog.Logger) *session {
	s := &session{
		w:       w,
		logger:  logger,
		pending: make(map[uint64]chan *jsonrpc.Response),
		done:    make(chan struct{}),
	}
	go s.readLoop(r)
	return s
}

// call sends a request frame and waits for the matching response.
func (s *session) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := s.ids.Next()
	frame, err := jsonrpc.EncodeFrame(jsonrpc.NewRequest(id, method, params))
	if err != nil {
		return nil, err
	}

	ch := make(chan *jsonrpc.Response, 1)
	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return nil, err
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	_, werr := s.w.Write(frame)
	s.writeMu.Unlock()
	if werr != nil {
		return nil, fmt.Errorf("connector: writing frame: %w", werr)
	}

	select {
	case resp := <-ch:
		if resp == nil {
			s.mu.Lock()
			err := s.err
			s.mu.Unlock()
			if err == nil {
				err = ErrClosed
			}
			return nil, err
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// readLoop consumes the server's output stream, extracting protocol lines
// and dispatching responses to waiting callers. It ends on stream close,
// broken pipe, or a decode failure on an accepted line, all terminal for
// the connection.
func (s *session) readLoop(r io.Reader) {
	defer close(s.done)

	var buf jsonrpc.LineBuffer
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			for _, line := range buf.Append(chunk[:n]) {
				if verr := security.ValidateMessageSize(line, 0); verr != nil {
					s.fail(fmt.Errorf("connector: %w", verr))
					return
				}
				resp, ok, derr := jsonrpc.DecodeResponse(line)
				if derr != nil {
					s.fail(derr)
					return
				}
				if !ok {
					// Server notification; nothing waits on it.
					continue
				}
				s.dispatch(resp)
			}
		}
		if err != nil {
			if pending := buf.Pending(); pending > 0 {
				s.logger.Debug("discarding partial line at stream end", "bytes", pending)
			}
			if errors.Is(err, io.EOF) {
				s.fail(fmt.Errorf("connector: %w: server exited", ErrClosed))
			} else {
				s.fail(fmt.Errorf("connector: reading stream: %w", err))
			}
			return
		}
	}
}

func (s *session) dispatch(resp *jsonrpc.Response) {
	s.mu.Lock()
	ch, ok := s.pending[resp.ID]
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("response for unknown request", "id", resp.ID)
		return
	}
	ch <- resp
}

// fail marks the session terminally broken and wakes all pending callers.
func (s *session) fail(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	waiting := s.pending
	s.pending = make(map[uint64]chan *jsonrpc.Response)
	s.mu.Unlock()

	for _, ch := range waiting {
		ch <- nil
	}
}

func (s *session) close() error {
	s.fail(ErrClosed)
	return s.w.Close()
}
