// Package connector defines the backend boundary for tools: a Connector
// exposes schema-described tools and executes calls against them. Two
// transports are provided: a subprocess speaking newline-delimited
// JSON-RPC over its standard streams, and an HTTPS endpoint speaking the
// same protocol over POST. The Registry owns the set of live connectors;
// all mutation goes through it.
package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// Sentinel errors for connector lookup and lifecycle.
var (
	// ErrNotFound is returned when no connector is registered under an ID.
	ErrNotFound = errors.New("connector not found")

	// ErrClosed is returned for calls against a closed connector.
	ErrClosed = errors.New("connector closed")

	// ErrDuplicate is returned when registering an ID twice.
	ErrDuplicate = errors.New("connector already registered")
)

// CallError is a connector-reported tool failure. Retryable is set only
// when the connector marks the failure as transient.
type CallError struct {
	Message   string
	Retryable bool
}

func (e *CallError) Error() string { return e.Message }

// Connector is a registered backend exposing one or more tools.
type Connector interface {
	// ID returns the stable connector identity.
	ID() string

	// Name returns the human-facing name used as the tool name prefix.
	Name() string

	// Tools lists the tools the connector currently exposes.
	Tools(ctx context.Context) ([]tool.ConnectorTool, error)

	// Call invokes a tool by its original (pre-disambiguation) name.
	// Tool-level failures are returned as *CallError; transport-level
	// failures as ordinary errors.
	Call(ctx context.Context, originalName string, args map[string]tool.Value) (*tool.Content, error)

	// Close releases the connector's resources.
	Close() error
}

// Registry holds the live connectors keyed by ID. It is the only path to
// the connector set; it is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]Connector)}
}

// Register adds a connector. Registering an ID twice is an error.
func (r *Registry) Register(c Connector) error {
	id := c.ID()
	if id == "" {
		return errors.New("connector: empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	r.connectors[id] = c
	return nil
}

// Get returns the connector registered under id.
func (r *Registry) Get(id string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

// Remove unregisters and closes the connector under id. Removing an
// unknown ID is a no-op.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	c, ok := r.connectors[id]
	delete(r.connectors, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// IDs returns the registered connector IDs in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tools collects the advertised tools of every registered connector.
// Connectors that fail to list are skipped; their error is reported via
// the returned error join so the caller can log it.
func (r *Registry) Tools(ctx context.Context) ([]tool.ConnectorTool, error) {
	r.mu.RLock()
	connectors := make([]Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		connectors = append(connectors, c)
	}
	r.mu.RUnlock()

	sort.Slice(connectors, func(i, j int) bool { return connectors[i].ID() < connectors[j].ID() })

	var tools []tool.ConnectorTool
	var errs []error
	for _, c := range connectors {
		ts, err := c.Tools(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("connector %s: %w", c.ID(), err))
			continue
		}
		tools = append(tools, ts...)
	}
	return tools, errors.Join(errs...)
}

// Close closes every registered connector and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	connectors := r.connectors
	r.connectors = make(map[string]Connector)
	r.mu.Unlock()

	var errs []error
	for _, c := range connectors {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
