package config

import (
	"errors"
	"fmt"
	"regexp"
)

var supportedFormats = map[string]struct{}{
	"openai":    {},
	"anthropic": {},
	"gemini":    {},
}

var supportedLogLevels = map[string]struct{}{
	"": {}, "debug": {}, "info": {}, "warn": {}, "error": {},
}

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Provider.Format == "" {
		errs = append(errs, errors.New("config: provider.format is required"))
	} else if _, ok := supportedFormats[cfg.Provider.Format]; !ok {
		errs = append(errs, fmt.Errorf("config: unsupported provider format %q (supported: openai, anthropic, gemini)", cfg.Provider.Format))
	}
	if cfg.Provider.Model == "" {
		errs = append(errs, errors.New("config: provider.model is required"))
	}
	if cfg.Provider.APIKey == "" {
		errs = append(errs, errors.New("config: provider.api_key is required"))
	}

	if cfg.Orchestrator.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("config: orchestrator.max_rounds must not be negative (got %d)", cfg.Orchestrator.MaxRounds))
	}
	if cfg.Executor.ApprovalTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: executor.approval_timeout must not be negative (got %s)", cfg.Executor.ApprovalTimeout))
	}
	if cfg.Executor.ToolTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: executor.tool_timeout must not be negative (got %s)", cfg.Executor.ToolTimeout))
	}

	if _, ok := supportedLogLevels[cfg.Logging.Level]; !ok {
		errs = append(errs, fmt.Errorf("config: unknown logging level %q", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown logging format %q (supported: text, json)", cfg.Logging.Format))
	}
	for i, pattern := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("config: logging.redact_patterns[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
