// Package main is the entry point for the toolgate CLI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/an09mous/Extremis-sub003/internal/config"
	"github.com/an09mous/Extremis-sub003/internal/connector"
	"github.com/an09mous/Extremis-sub003/internal/executor"
	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
	"github.com/an09mous/Extremis-sub003/internal/risk"
	"github.com/an09mous/Extremis-sub003/internal/security"
	"github.com/an09mous/Extremis-sub003/modules/provider/anthropic"
	"github.com/an09mous/Extremis-sub003/modules/provider/openai"
	"github.com/an09mous/Extremis-sub003/pkg/tool"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toolgate",
		Short:         "LLM tool-invocation gateway: connectors, risk gating, multi-round tool calling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), configCmd(), connectorsCmd(), toolsCmd(), askCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("toolgate %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Configuration OK (provider: %s, model: %s)\n", cfg.Provider.Format, cfg.Provider.Model)
			return nil
		},
	})
	return cmd
}

func connectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectors",
		Short: "Connector configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured connectors",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			store := connector.NewStore(connectorsPath(cfg))
			doc, err := store.Load()
			if err != nil {
				return err
			}

			if len(doc.BuiltIn) == 0 && len(doc.Custom) == 0 {
				fmt.Println("No connectors configured.")
				return nil
			}
			for id, entry := range doc.BuiltIn {
				state := "disabled"
				if entry.Enabled {
					state = "enabled"
				}
				fmt.Printf("  %s (built-in, %s)\n", id, state)
			}
			for _, srv := range doc.Custom {
				state := "disabled"
				if srv.Enabled {
					state = "enabled"
				}
				fmt.Printf("  %s [%s] (%s, %s)\n", srv.Name, srv.ID, srv.Type, state)
			}
			return nil
		},
	})
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by enabled connectors",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, stop := signalContext()
			defer stop()

			registry, err := startConnectors(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = registry.Close() }()

			tools, err := registry.Tools(ctx)
			if err != nil {
				logger.Warn("partial tool discovery", "error", err)
			}
			if len(tools) == 0 {
				fmt.Println("No tools advertised.")
				return nil
			}
			for _, t := range tools {
				desc := t.Description
				if desc == "" {
					desc = "(no description)"
				}
				fmt.Printf("  %s - %s\n", t.Name(), desc)
			}
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run one prompt through the tool-calling loop",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			provider, err := buildProvider(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			registry, err := startConnectors(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = registry.Close() }()

			var gateOpts []risk.GateOption
			if cfg.Executor.ApprovalTimeout > 0 {
				gateOpts = append(gateOpts, risk.WithApprovalTimeout(cfg.Executor.ApprovalTimeout.Std()))
			}
			gate := risk.NewCommandGate(risk.NewPatternStore(), terminalApprover{}, logger, gateOpts...)
			execOpts := []executor.Option{executor.WithGate(gate), executor.WithLogger(logger)}
			if cfg.Executor.ToolTimeout > 0 {
				execOpts = append(execOpts, executor.WithTimeout(cfg.Executor.ToolTimeout.Std()))
			}
			exec := executor.New(registry, execOpts...)

			loopOpts := []orchestrator.Option{orchestrator.WithLogger(logger)}
			if cfg.Orchestrator.MaxRounds > 0 {
				loopOpts = append(loopOpts, orchestrator.WithMaxRounds(cfg.Orchestrator.MaxRounds))
			}
			loop := orchestrator.New(provider, exec, registry, loopOpts...)

			result, err := loop.Run(ctx, []orchestrator.Message{{
				Role:    orchestrator.RoleUser,
				Content: strings.Join(args, " "),
			}})
			if err != nil {
				return err
			}

			fmt.Println(result.FinalText)
			if result.State == orchestrator.StateRoundLimitReached {
				logger.Warn("round limit reached", "rounds", len(result.Rounds))
			}
			return nil
		},
	}
}

// terminalApprover prompts on the controlling terminal for command
// approval.
type terminalApprover struct{}

func (terminalApprover) RequestApproval(_ context.Context, _ tool.Call, command string, level risk.Level) (bool, error) {
	fmt.Fprintf(os.Stderr, "Allow %s command? %q [y/N]: ", level, command)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// buildProvider constructs the model backend named by the provider format.
func buildProvider(cfg *config.Config, logger *slog.Logger) (orchestrator.Provider, error) {
	switch cfg.Provider.Format {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:    cfg.Provider.APIKey,
			Model:     cfg.Provider.Model,
			BaseURL:   cfg.Provider.BaseURL,
			MaxTokens: cfg.Provider.MaxTokens,
		}, logger), nil
	case "openai":
		return openai.New(openai.Config{
			APIKey:    cfg.Provider.APIKey,
			Model:     cfg.Provider.Model,
			BaseURL:   cfg.Provider.BaseURL,
			MaxTokens: cfg.Provider.MaxTokens,
		}, logger), nil
	default:
		return nil, fmt.Errorf("provider format %q is not compiled into this binary (available: anthropic, openai)", cfg.Provider.Format)
	}
}

// loadConfig resolves and loads the configuration for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		resolved, err := resolveConfigPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	return config.Load(path)
}

// newLogger builds the redacting logger from the logging configuration.
// The provider key is registered as a redaction literal so it can never
// appear in output, whatever the source of the log line.
func newLogger(cfg *config.Config) *slog.Logger {
	redactor := security.NewRedactor()
	redactor.AddLiteral(cfg.Provider.APIKey)
	for _, pattern := range cfg.Logging.RedactPatterns {
		if re, err := regexp.Compile(pattern); err == nil {
			redactor.AddPattern(re)
		}
	}
	return security.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, redactor)
}

// startConnectors loads the connector document and registers every enabled
// custom connector, starting subprocess transports.
func startConnectors(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*connector.Registry, error) {
	store := connector.NewStore(connectorsPath(cfg))
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}

	registry := connector.NewRegistry()
	for _, srv := range doc.Custom {
		if !srv.Enabled {
			continue
		}
		switch srv.Type {
		case connector.TransportStdio:
			conn := connector.NewStdioConnector(srv.ID, srv.Name, connector.StdioSpec{
				Command: srv.Transport.Command,
				Args:    srv.Transport.Args,
				Env:     srv.Transport.Env,
			}, logger)
			if err := conn.Start(ctx); err != nil {
				logger.Warn("connector failed to start", "connector", srv.Name, "error", err)
				continue
			}
			if err := registry.Register(conn); err != nil {
				_ = conn.Close()
				logger.Warn("connector not registered", "connector", srv.Name, "error", err)
			}
		case connector.TransportHTTP:
			conn, err := connector.NewHTTPConnector(srv.ID, srv.Name, connector.HTTPSpec{
				URL:     srv.Transport.URL,
				Headers: srv.Transport.Headers,
			}, nil)
			if err != nil {
				logger.Warn("invalid http connector", "connector", srv.Name, "error", err)
				continue
			}
			if err := registry.Register(conn); err != nil {
				logger.Warn("connector not registered", "connector", srv.Name, "error", err)
			}
		}
	}
	return registry, nil
}

// connectorsPath returns the configured connector file path or its default
// location.
func connectorsPath(cfg *config.Config) string {
	if cfg.Connectors.File != "" {
		return cfg.Connectors.File
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "toolgate", "connectors.json")
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/toolgate/toolgate.yaml → ./toolgate.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "toolgate", "toolgate.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "toolgate", "toolgate.yaml"))
	}

	candidates = append(candidates, "toolgate.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
