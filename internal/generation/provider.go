package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/flashgen/internal/intake"
)

// Provider sends one request to a language model and returns its text reply.
type Provider interface {
	// Complete performs exactly one remote call.
	Complete(ctx context.Context, req Request) (string, error)

	// Name returns the provider name
	Name() string
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// StatusError is a non-2xx reply from a provider API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Request is what a provider sends: the prompt plus, for PDFs, the
// document itself.
type Request struct {
	Model     string
	MaxTokens int
	Prompt    string
	Document  intake.Document
}

// Config holds the provider settings.
type Config struct {
	Provider  string // "anthropic", "openai" or "gemini"
	APIKey    string
	Model     string // empty selects the provider default
	MaxTokens int
	Timeout   time.Duration

	// BaseURL overrides the provider endpoint.
	BaseURL string

	Log *logrus.Logger
}

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:  "anthropic",
		MaxTokens: 8000,
		Timeout:   2 * time.Minute,
	}
}

// ModelOrDefault returns the configured model or the provider default.
func (c *Config) ModelOrDefault() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case "openai":
		return DefaultOpenAIModel
	case "gemini":
		return DefaultGeminiModel
	default:
		return DefaultAnthropicModel
	}
}

func (c *Config) logger() *logrus.Logger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// NewProvider creates the provider named in config.
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	switch config.Provider {
	case "anthropic", "":
		return NewAnthropicProvider(config), nil
	case "openai":
		return NewOpenAIProvider(config), nil
	case "gemini":
		p, err := NewGeminiProvider(config)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", config.Provider)
	}
}
