package llm

import (
	"context"
	"fmt"
	"time"
)

// slotTimeout bounds how long a request queues for a free slot.
const slotTimeout = 5 * time.Minute

type limitedProvider struct {
	inner    Provider
	rateChan chan struct{} // token bucket
}

// WithConcurrencyLimit lets at most n requests reach p at once.
func WithConcurrencyLimit(p Provider, n int) Provider {
	if n < 1 {
		n = 1
	}
	rateChan := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		rateChan <- struct{}{}
	}
	return &limitedProvider{inner: p, rateChan: rateChan}
}

func (l *limitedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()
	return l.inner.Generate(ctx, req)
}

func (l *limitedProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *limitedProvider) acquire(ctx context.Context) error {
	select {
	case <-l.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(slotTimeout):
		return fmt.Errorf("timeout waiting for llm request slot")
	}
}

func (l *limitedProvider) release() {
	l.rateChan <- struct{}{}
}
