// Package openai implements the OpenAI-compatible model backend over the
// chat completions API. The HTTP client is hand-rolled: the wire format is
// small, stable, and shared by every OpenAI-compatible vendor.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/an09mous/Extremis-sub003/internal/orchestrator"
	"github.com/an09mous/Extremis-sub003/internal/schema"
)

// Interface guard.
var _ orchestrator.Provider = (*Provider)(nil)

// Provider runs generations against an OpenAI-compatible chat completions
// endpoint.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New builds a Provider from configuration. The API key falls back to the
// OPENAI_API_KEY environment variable when unset.
func New(cfg Config, logger *slog.Logger) *Provider {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		if envKey, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			cfg.APIKey = envKey
		}
	}
	return &Provider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Format implements orchestrator.Provider.
func (p *Provider) Format() schema.Format { return schema.FormatOpenAI }

// ModelName returns the configured model identifier.
func (p *Provider) ModelName() string { return p.config.Model }

// Generate implements orchestrator.Provider: one chat completions round
// trip.
func (p *Provider) Generate(ctx context.Context, req orchestrator.GenerateRequest) (orchestrator.Generation, error) {
	cr := chatRequest{
		Model:     p.config.Model,
		Messages:  toMessages(req.Messages),
		MaxTokens: p.config.MaxTokens,
	}
	if len(req.Tools) > 0 {
		cr.Tools = req.Tools
	}

	body, statusCode, err := p.doPost(ctx, "/chat/completions", cr)
	if err != nil {
		return orchestrator.Generation{}, err
	}
	if httpErr := mapHTTPError(statusCode, body); httpErr != nil {
		return orchestrator.Generation{}, httpErr
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return orchestrator.Generation{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return orchestrator.Generation{}, fmt.Errorf("openai: response has no choices")
	}

	choice := resp.Choices[0].Message
	return orchestrator.Generation{
		Content:   choice.Content,
		ToolCalls: choice.ToolCalls,
	}, nil
}

// doPost sends an authenticated POST and returns the body and status code.
// The body is capped at maxResponseSize bytes.
func (p *Provider) doPost(ctx context.Context, path string, payload any) ([]byte, int, error) {
	httpReq, err := p.newHTTPRequest(ctx, path, payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readLimited(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("openai: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
