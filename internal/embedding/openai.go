package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	OpenAIFamily       = "openai"
	OpenAIDefaultModel = string(openai.SmallEmbedding3)
)

// OpenAI embeds through any OpenAI compatible endpoint.
type OpenAI struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAI returns a provider that reports ErrNotConfigured when apiKey is
// empty.
func NewOpenAI(apiKey, baseURL, model string, dimensions int) *OpenAI {
	if model == "" {
		model = OpenAIDefaultModel
	}
	p := &OpenAI{model: model, dimensions: dimensions}
	if strings.TrimSpace(apiKey) == "" {
		return p
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	p.client = openai.NewClientWithConfig(cfg)
	return p
}

func (o *OpenAI) Family() string { return OpenAIFamily }

func (o *OpenAI) Model() string { return o.model }

// Dimensions is the requested vector width; zero means the model default.
func (o *OpenAI) Dimensions() int { return o.dimensions }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.client == nil {
		return nil, ErrNotConfigured
	}
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dimensions,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("openai model %s: %w", o.model, ErrModelNotFound)
			}
			return nil, &ProviderError{Provider: OpenAIFamily, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai returned an empty embedding")
	}
	return resp.Data[0].Embedding, nil
}
