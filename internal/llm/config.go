package llm

import (
	"fmt"
	"time"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Config selects and configures one backend.
type Config struct {
	Provider string // groq, openai, gemini, anthropic or mock

	Groq      OpenAIConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Anthropic AnthropicConfig

	Retry              RetryConfig
	ConcurrentRequests int
}

// OpenAIConfig also serves OpenAI-compatible endpoints such as Groq.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	// StrictSchema sends the JSON schema with the request. Endpoints that
	// only know plain JSON mode leave it off.
	StrictSchema bool
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

func DefaultConfig() Config {
	return Config{
		Provider: "groq",
		Groq: OpenAIConfig{
			Model:   "llama-3.3-70b-versatile",
			BaseURL: groqBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model:        "gpt-4o-mini",
			StrictSchema: true,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku-4-5",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		ConcurrentRequests: 5,
	}
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "groq":
		key = c.Groq.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "anthropic":
		key = c.Anthropic.APIKey
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
