package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	APIKey string
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a provider using apiKey.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{APIKey: apiKey}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// GenerateResponse sends a generateContent request using the official GenAI SDK.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, req Request) (string, error) {
	if p.APIKey == "" {
		return "", fmt.Errorf("%w: gemini api key not set", ErrBadRequest)
	}

	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create genai client: %v", ErrUnavailable, err)
	}

	// Prepare Config
	config := &genai.GenerateContentConfig{}
	if req.Options.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Options.Temperature))
	}
	if req.Options.TopP > 0 {
		config.TopP = genai.Ptr(float32(req.Options.TopP))
	}
	if req.Options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.Options.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return "", fmt.Errorf("%w: image is not base64: %v", ErrBadRequest, err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: http.DetectContentType(data), Data: data}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", classifyGeminiError(ctx, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 || apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: gemini: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: gemini: %v", ErrBadRequest, err)
	}
	return classifyTransportError(ctx, err)
}
