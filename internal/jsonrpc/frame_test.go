package jsonrpc

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestIDCounter_Monotonic(t *testing.T) {
	t.Parallel()

	var c IDCounter
	if got := c.Next(); got != 1 {
		t.Errorf("first ID: got %d, want 1", got)
	}
	if got := c.Next(); got != 2 {
		t.Errorf("second ID: got %d, want 2", got)
	}
}

func TestIDCounter_Concurrent(t *testing.T) {
	t.Parallel()

	var c IDCounter
	const n = 100
	seen := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool, n)
	for id := range seen {
		if unique[id] {
			t.Fatalf("duplicate ID %d", id)
		}
		unique[id] = true
	}
}

func TestEncodeFrame_NewlineTerminated(t *testing.T) {
	t.Parallel()

	raw, err := EncodeFrame(NewRequest(1, "tools/list", nil))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	s := string(raw)
	if !strings.HasSuffix(s, "\n") {
		t.Error("frame must end with newline")
	}
	if strings.Count(s, "\n") != 1 {
		t.Errorf("frame must contain exactly one newline: %q", s)
	}
	if !strings.Contains(s, `"jsonrpc":"2.0"`) {
		t.Errorf("missing version field: %q", s)
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantErr bool
	}{
		{"result response", `{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`, true, false},
		{"error response", `{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"no such method"}}`, true, false},
		{"notification", `{"jsonrpc":"2.0","method":"log","params":{}}`, false, false},
		{"malformed", `{"jsonrpc":`, false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, ok, err := DecodeResponse([]byte(tt.line))
			if tt.wantErr {
				if !errors.Is(err, ErrDecode) {
					t.Fatalf("expected ErrDecode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeResponse: %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && resp == nil {
				t.Error("ok response must be non-nil")
			}
		})
	}
}

func TestRPCError_Error(t *testing.T) {
	t.Parallel()

	e := &RPCError{Code: -32601, Message: "method not found"}
	if e.Error() != "method not found" {
		t.Errorf("got %q", e.Error())
	}
}
