package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const (
	GeminiFamily        = "gemini"
	GeminiPrimaryModel  = "text-embedding-004"
	GeminiFallbackModel = "gemini-embedding-001"
)

// Gemini embeds with one Gemini API model. Fields must be set before the
// first Embed call.
type Gemini struct {
	APIKey     string
	ModelID    string
	BaseURL    string
	Dimensions int
	HTTPClient *http.Client

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func NewGemini(apiKey, model string, dimensions int) *Gemini {
	return &Gemini{
		APIKey:     apiKey,
		ModelID:    model,
		Dimensions: dimensions,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gemini) Family() string { return GeminiFamily }

func (g *Gemini) Model() string { return g.ModelID }

func (g *Gemini) connect(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     g.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.HTTPClient,
		}
		if g.BaseURL != "" {
			cfg.HTTPOptions.BaseURL = strings.TrimRight(g.BaseURL, "/") + "/"
		}
		g.client, g.clientErr = genai.NewClient(ctx, cfg)
	})
	return g.client, g.clientErr
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(g.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	client, err := g.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	var cfg *genai.EmbedContentConfig
	if g.Dimensions > 0 {
		dims := int32(g.Dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}
	resp, err := client.Models.EmbedContent(ctx, g.ModelID, genai.Text(text), cfg)
	if err != nil {
		return nil, g.mapError(err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return resp.Embeddings[0].Values, nil
}

func (g *Gemini) mapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return fmt.Errorf("gemini embed: %w", err)
		}
		apiErr = *ptr
	}
	if apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("gemini model %s: %w", g.ModelID, ErrModelNotFound)
	}
	return &ProviderError{Provider: GeminiFamily, StatusCode: apiErr.Code, Body: apiErr.Message}
}
