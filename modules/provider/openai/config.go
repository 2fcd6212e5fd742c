package openai

import "time"

// defaultBaseURL targets the OpenAI API; any compatible vendor endpoint
// can be substituted.
const defaultBaseURL = "https://api.openai.com/v1"

// defaultTimeout bounds one chat completions round trip.
const defaultTimeout = 120 * time.Second

// Config holds the OpenAI provider configuration.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// defaults fills in zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}
