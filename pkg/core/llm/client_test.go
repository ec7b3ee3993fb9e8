package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider fails with the queued errors, then answers.
type scriptedProvider struct {
	mu       sync.Mutex
	failures []error
	answer   string
	calls    int
	requests []Request
	block    bool
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) GenerateResponse(ctx context.Context, req Request) (string, error) {
	p.mu.Lock()
	p.calls++
	p.requests = append(p.requests, req)
	var err error
	if len(p.failures) > 0 {
		err = p.failures[0]
		p.failures = p.failures[1:]
	}
	block := p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return p.answer, nil
}

func newTestClient(p Provider, maxRetries int) (*Client, *[]time.Duration) {
	cfg := DefaultClientConfig()
	cfg.MaxRetries = maxRetries
	cfg.RetryDelay = 100 * time.Millisecond
	cfg.Timeout = time.Second
	c := NewClient(p, cfg)

	var delays []time.Duration
	c.SetSleep(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	})
	return c, &delays
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	p := &scriptedProvider{
		failures: []error{ErrUnavailable, ErrTimeout},
		answer:   "ok",
	}
	c, delays := newTestClient(p, 3)

	text, err := c.Generate(context.Background(), "prompt", "")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *delays)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	p := &scriptedProvider{
		failures: []error{ErrUnavailable, ErrUnavailable, ErrEmptyResponse, ErrUnavailable},
	}
	c, delays := newTestClient(p, 3)

	_, err := c.Generate(context.Background(), "prompt", "m")

	require.Error(t, err)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, "m", genErr.Model)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 3, p.calls)
	assert.Len(t, *delays, 2)
}

func TestDo_BadRequestIsNotRetried(t *testing.T) {
	p := &scriptedProvider{failures: []error{ErrBadRequest}}
	c, delays := newTestClient(p, 5)

	_, err := c.Generate(context.Background(), "prompt", "")

	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, *delays)
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	p := &scriptedProvider{block: true}
	cfg := DefaultClientConfig()
	cfg.MaxRetries = 2
	cfg.Timeout = 20 * time.Millisecond
	cfg.RetryDelay = 0
	c := NewClient(p, cfg)

	_, err := c.Generate(context.Background(), "prompt", "")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, p.calls)
}

func TestDo_CallerCancellationStopsRetries(t *testing.T) {
	p := &scriptedProvider{block: true}
	cfg := DefaultClientConfig()
	cfg.MaxRetries = 5
	cfg.Timeout = time.Minute
	c := NewClient(p, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Generate(ctx, "prompt", "")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, p.calls)
}

func TestDo_ModelDefaults(t *testing.T) {
	p := &scriptedProvider{answer: "ok"}
	c, _ := newTestClient(p, 1)

	_, err := c.Do(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Prompt: "b", Images: []string{"aGk="}})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Prompt: "c", Model: "custom"})
	require.NoError(t, err)

	require.Len(t, p.requests, 3)
	assert.Equal(t, "llama3.2", p.requests[0].Model)
	assert.Equal(t, "llava", p.requests[1].Model)
	assert.Equal(t, "custom", p.requests[2].Model)
	assert.Equal(t, 2000, p.requests[0].Options.MaxTokens)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	p, err = NewProvider(ProviderConfig{Name: "Gemini", GeminiAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	_, err = NewProvider(ProviderConfig{Name: "openai"})
	assert.Error(t, err)
}
