package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ClientConfig holds the generation settings shared by every call.
type ClientConfig struct {
	DefaultModel string
	VisionModel  string
	Options      Options
	Timeout      time.Duration // per attempt
	MaxRetries   int           // total attempts
	RetryDelay   time.Duration // base for exponential backoff
}

// DefaultClientConfig returns the settings used when nothing is configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DefaultModel: "llama3.2",
		VisionModel:  "llava",
		Options:      Options{Temperature: 0.7, TopP: 0.9, MaxTokens: 2000},
		Timeout:      120 * time.Second,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Client wraps a Provider with per-attempt timeouts and exponential backoff.
// It is safe for concurrent use.
type Client struct {
	provider Provider
	cfg      ClientConfig
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client.
func NewClient(p Provider, cfg ClientConfig) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Client{provider: p, cfg: cfg, sleep: sleepContext}
}

// SetSleep replaces the backoff wait. Tests use it to record delays.
func (c *Client) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider { return c.provider }

// ResolveModel returns the model a request would be sent to.
func (c *Client) ResolveModel(model string, hasImages bool) string {
	switch {
	case model != "":
		return model
	case hasImages && c.cfg.VisionModel != "":
		return c.cfg.VisionModel
	default:
		return c.cfg.DefaultModel
	}
}

// Generate sends prompt to model ("" means the default model).
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	return c.Do(ctx, Request{Prompt: prompt, Model: model})
}

// Do runs req, retrying transient failures.
//
// MaxRetries is the total number of attempts. After failed attempt i (0-based) the
// client waits RetryDelay * 2^i. Caller cancellation stops immediately.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	req.Model = c.ResolveModel(req.Model, len(req.Images) > 0)
	if req.Options == (Options{}) {
		req.Options = c.cfg.Options
	}
	logger := zerolog.Ctx(ctx)

	var lastErr error
	attempts := 0
	for i := 0; i < c.cfg.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("generate with %s: %w", req.Model, err)
		}

		attempts++
		text, err := c.attempt(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		// The caller gave up; the attempt error is only a symptom.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("generate with %s: %w", req.Model, ctxErr)
		}
		if !transient(err) {
			break
		}
		if i == c.cfg.MaxRetries-1 {
			break
		}

		delay := c.cfg.RetryDelay * time.Duration(1<<i)
		logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Dur("delay", delay).
			Str("model", req.Model).
			Msg("generation failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("generate with %s: %w", req.Model, err)
		}
	}

	return "", &GenerationError{Model: req.Model, Attempts: attempts, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	actx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	text, err := c.provider.GenerateResponse(actx, req)
	if err != nil {
		// Providers that ignore the deadline still report it as a timeout.
		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, ErrTimeout) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}
	return text, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
