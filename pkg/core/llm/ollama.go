package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider calls a local Ollama server.
type OllamaProvider struct {
	client *resty.Client
}

// Ensure interface compliance
var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider creates a provider for the server at baseURL.
// Timeouts come from the request context, not the HTTP client.
func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	return &OllamaProvider{client: client}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// GenerateResponse posts to /api/generate. With stream=false Ollama answers with a
// single object, but some proxies still send NDJSON chunks; both are handled by
// concatenating every chunk's "response" in order.
func (p *OllamaProvider) GenerateResponse(ctx context.Context, req Request) (string, error) {
	// 1. Construct Request Body
	body := ollamaRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Images:  req.Images,
		Stream:  false,
		Options: ollamaOptions(req.Options),
	}

	// 2. Execute Request
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetDoNotParseResponse(true).
		Post("/api/generate")
	if err != nil {
		return "", classifyTransportError(ctx, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	// 3. Map status codes
	if status := resp.StatusCode(); status != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(raw, 4096))
		detail := strings.TrimSpace(string(msg))
		if status >= 500 || status == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: ollama returned status %d: %s", ErrUnavailable, status, detail)
		}
		return "", fmt.Errorf("%w: ollama returned status %d: %s", ErrBadRequest, status, detail)
	}

	// 4. Decode chunks
	var b strings.Builder
	dec := json.NewDecoder(raw)
	for {
		var chunk ollamaChunk
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", classifyTransportError(ctx, ctxErr)
			}
			return "", fmt.Errorf("%w: decode ollama response: %v", ErrUnavailable, err)
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("%w: ollama: %s", ErrUnavailable, chunk.Error)
		}
		b.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Ping checks that the server answers /api/tags.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: ollama returned status %d", ErrUnavailable, resp.StatusCode())
	}
	return nil
}

func ollamaOptions(o Options) map[string]any {
	opts := map[string]any{}
	if o.Temperature > 0 {
		opts["temperature"] = o.Temperature
	}
	if o.TopP > 0 {
		opts["top_p"] = o.TopP
	}
	if o.MaxTokens > 0 {
		opts["num_predict"] = o.MaxTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// classifyTransportError maps a failed round trip to a failure kind. Caller
// cancellation is returned as is so the client does not retry it.
func classifyTransportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
