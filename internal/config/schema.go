// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for toolgate.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML support for the "45s" notation.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Provider     ProviderConfig     `yaml:"provider"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator,omitempty"`
	Executor     ExecutorConfig     `yaml:"executor,omitempty"`
	Connectors   ConnectorsConfig   `yaml:"connectors,omitempty"`
	Logging      LoggingConfig      `yaml:"logging,omitempty"`
}

// ProviderConfig selects and credentials the active model backend.
type ProviderConfig struct {
	// Format is the provider wire format: openai, anthropic or gemini.
	Format string `yaml:"format"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model"`

	// APIKey authenticates against the provider. Usually supplied via
	// ${VAR} expansion rather than inline.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxTokens caps the provider's response length. Zero uses the
	// provider default.
	MaxTokens int `yaml:"max_tokens,omitempty"`
}

// OrchestratorConfig tunes the tool-calling loop.
type OrchestratorConfig struct {
	// MaxRounds bounds the number of tool rounds in one conversation.
	// Zero uses the built-in default.
	MaxRounds int `yaml:"max_rounds,omitempty"`
}

// ExecutorConfig tunes tool execution.
type ExecutorConfig struct {
	// ApprovalTimeout bounds how long an interactive approval prompt may
	// block a tool call. Zero waits for the call's context.
	ApprovalTimeout Duration `yaml:"approval_timeout,omitempty"`

	// ToolTimeout bounds a single tool call. Zero uses the built-in
	// default.
	ToolTimeout Duration `yaml:"tool_timeout,omitempty"`
}

// ConnectorsConfig locates the persisted connector definitions.
type ConnectorsConfig struct {
	// File is the path of the connector configuration document. A missing
	// file is treated as an empty document, never an error.
	File string `yaml:"file,omitempty"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json". Empty means text.
	Format string `yaml:"format,omitempty"`

	// RedactPatterns are extra regular expressions whose matches are
	// masked in log output, on top of the built-in secret detectors.
	RedactPatterns []string `yaml:"redact_patterns,omitempty"`
}
