package embedding

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by a provider that has no credential.
	ErrNotConfigured = errors.New("embedding provider not configured")
	// ErrModelNotFound is returned when the provider rejects the model name.
	ErrModelNotFound = errors.New("embedding model not found")
	// ErrStale is returned by a VectorStore when the row's text changed after
	// the vector was computed. A newer indexing job owns the row.
	ErrStale = errors.New("indexed text is no longer current")
)

// Provider turns text into a vector with one fixed model.
type Provider interface {
	// Family groups providers that share a vector space owner, such as all
	// Gemini models.
	Family() string
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder is what indexing and search depend on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderError is an API level failure reported by a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Body)
}
