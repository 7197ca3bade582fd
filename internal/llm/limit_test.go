package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowProvider struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowProvider) Generate(context.Context, Request) (*Response, error) {
	n := s.inFlight.Add(1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	s.inFlight.Add(-1)
	return &Response{Content: "ok"}, nil
}

func (s *slowProvider) ModelID() string { return "slow" }

func TestConcurrencyLimit(t *testing.T) {
	inner := &slowProvider{}
	p := WithConcurrencyLimit(inner, 2)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Generate(context.Background(), Request{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
	assert.Equal(t, "slow", p.ModelID())
}

func TestConcurrencyLimitHonorsContext(t *testing.T) {
	l := WithConcurrencyLimit(&slowProvider{}, 1).(*limitedProvider)
	require.NoError(t, l.acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)

	l.release()
	_, err = l.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}
