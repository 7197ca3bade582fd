package llm

import (
	"context"
	"log"
	"time"
)

type purposeKey struct{}

// WithPurpose labels the requests made with ctx in the request log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func purposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type loggingProvider struct {
	inner Provider
}

// WithLogging logs one line per request with its latency and token usage.
func WithLogging(p Provider) Provider {
	return &loggingProvider{inner: p}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		log.Printf("llm %s [%s] failed after %s: %v", l.inner.ModelID(), purposeFrom(ctx), elapsed, err)
		return nil, err
	}
	log.Printf("llm %s [%s] %s in=%d out=%d", resp.Model, purposeFrom(ctx), elapsed, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}
