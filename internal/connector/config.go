package connector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ConfigVersion is the current connector configuration document version.
const ConfigVersion = 1

// Transport kinds for custom server definitions.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ErrServerNotFound is returned when updating or removing an unknown
// custom server.
var ErrServerNotFound = errors.New("connector: custom server not found")

// Config is the persisted connector configuration document.
type Config struct {
	Version int                     `json:"version"`
	BuiltIn map[string]BuiltInEntry `json:"builtIn,omitempty"`
	Custom  []CustomServer          `json:"custom,omitempty"`
}

// BuiltInEntry holds the enable flag and optional settings of a built-in
// connector.
type BuiltInEntry struct {
	Enabled  bool                       `json:"enabled"`
	Settings map[string]json.RawMessage `json:"settings,omitempty"`
}

// CustomServer is a user-defined tool server.
type CustomServer struct {
	ID         string    `json:"id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Type       string    `json:"type" validate:"required,oneof=stdio http"`
	Enabled    bool      `json:"enabled"`
	Transport  Transport `json:"transport"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Transport is the union of the stdio and http transport definitions;
// the server's Type selects which fields apply.
type Transport struct {
	// Stdio transport.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// HTTP transport.
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Store loads and saves the connector configuration. Writes are whole-file
// replace; callers serialize concurrent mutation.
type Store struct {
	path     string
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		validate: validator.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Load reads the configuration file. A missing file is equivalent to an
// empty, current-version document, never an error.
func (s *Store) Load() (*Config, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{Version: ConfigVersion, BuiltIn: map[string]BuiltInEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connector: reading %s: %w", s.path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("connector: parsing %s: %w", s.path, err)
	}
	if cfg.BuiltIn == nil {
		cfg.BuiltIn = map[string]BuiltInEntry{}
	}
	return &cfg, nil
}

// Save writes the configuration document, replacing the whole file.
func (s *Store) Save(cfg *Config) error {
	cfg.Version = ConfigVersion

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("connector: encoding config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("connector: creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("connector: writing %s: %w", s.path, err)
	}
	return nil
}

// AddCustom validates a server definition, mints its identity, and appends
// it to the document (load-mutate-save).
func (s *Store) AddCustom(server CustomServer) (CustomServer, error) {
	server.ID = s.newID()
	now := s.now()
	server.CreatedAt = now
	server.ModifiedAt = now

	if err := s.validateServer(server); err != nil {
		return CustomServer{}, err
	}

	cfg, err := s.Load()
	if err != nil {
		return CustomServer{}, err
	}
	cfg.Custom = append(cfg.Custom, server)
	if err := s.Save(cfg); err != nil {
		return CustomServer{}, err
	}
	return server, nil
}

// UpdateCustom replaces the server with the same ID, preserving CreatedAt
// and bumping ModifiedAt.
func (s *Store) UpdateCustom(server CustomServer) (CustomServer, error) {
	cfg, err := s.Load()
	if err != nil {
		return CustomServer{}, err
	}

	for i, existing := range cfg.Custom {
		if existing.ID != server.ID {
			continue
		}
		server.CreatedAt = existing.CreatedAt
		server.ModifiedAt = s.now()
		if err := s.validateServer(server); err != nil {
			return CustomServer{}, err
		}
		cfg.Custom[i] = server
		if err := s.Save(cfg); err != nil {
			return CustomServer{}, err
		}
		return server, nil
	}
	return CustomServer{}, fmt.Errorf("%w: %s", ErrServerNotFound, server.ID)
}

// RemoveCustom deletes the server with the given ID.
func (s *Store) RemoveCustom(id string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	for i, existing := range cfg.Custom {
		if existing.ID != id {
			continue
		}
		cfg.Custom = append(cfg.Custom[:i], cfg.Custom[i+1:]...)
		return s.Save(cfg)
	}
	return fmt.Errorf("%w: %s", ErrServerNotFound, id)
}

// SetBuiltIn flips a built-in connector's enable flag.
func (s *Store) SetBuiltIn(id string, enabled bool) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	entry := cfg.BuiltIn[id]
	entry.Enabled = enabled
	cfg.BuiltIn[id] = entry
	return s.Save(cfg)
}

// validateServer checks struct tags plus the transport rules the tags
// cannot express: stdio needs a command, http needs a valid HTTPS URL.
func (s *Store) validateServer(server CustomServer) error {
	if err := s.validate.Struct(server); err != nil {
		return fmt.Errorf("connector: invalid server definition: %w", err)
	}
	switch server.Type {
	case TransportStdio:
		if server.Transport.Command == "" {
			return errors.New("connector: stdio server requires a command")
		}
	case TransportHTTP:
		if err := ValidateEndpoint(server.Transport.URL); err != nil {
			return err
		}
	}
	return nil
}
