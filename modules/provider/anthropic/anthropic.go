// Package anthropic implements the Anthropic model backend, bridging the
// orchestration loop to the Anthropic Messages API.
package anthropic

import (
	"context"
	"log/slog"
	"os"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
	"github.com/an09mous/Extremis-sub003/internal/schema"
)

// Interface guard.
var _ orchestrator.Provider = (*Provider)(nil)

// Provider runs generations against the Anthropic Messages API.
type Provider struct {
	config Config
	client *sdkanthropic.Client
	logger *slog.Logger
}

// New builds a Provider from configuration. The API key falls back to the
// ANTHROPIC_API_KEY environment variable when unset.
func New(cfg Config, logger *slog.Logger) *Provider {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			apiKey = envKey
		}
	}

	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// Retry policy belongs to the caller; per-call failures are surfaced
	// with a retryability hint instead of being retried here.
	opts = append(opts, option.WithMaxRetries(0))

	client := sdkanthropic.NewClient(opts...)
	return &Provider{config: cfg, client: &client, logger: logger}
}

// Format implements orchestrator.Provider.
func (p *Provider) Format() schema.Format { return schema.FormatAnthropic }

// ModelName returns the configured model identifier.
func (p *Provider) ModelName() string { return p.config.Model }

// Generate implements orchestrator.Provider: one Messages API round trip.
func (p *Provider) Generate(ctx context.Context, req orchestrator.GenerateRequest) (orchestrator.Generation, error) {
	params, err := convertRequest(req, &p.config, p.logger)
	if err != nil {
		return orchestrator.Generation{}, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return orchestrator.Generation{}, mapError(err)
	}

	return convertResponse(msg)
}
