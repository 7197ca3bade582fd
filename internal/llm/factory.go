package llm

import (
	"context"
	"fmt"
)

// NewProvider builds the configured backend wrapped as
// caller -> concurrency limit -> retry -> logging -> backend.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "groq":
		groq := cfg.Groq
		if groq.BaseURL == "" {
			groq.BaseURL = groqBaseURL
		}
		base, err = NewOpenAIProvider(groq)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return Wrap(base, cfg), nil
}

// Wrap applies the standard decorators to p.
func Wrap(p Provider, cfg Config) Provider {
	return WithConcurrencyLimit(WithRetry(WithLogging(p), cfg.Retry), cfg.ConcurrentRequests)
}
