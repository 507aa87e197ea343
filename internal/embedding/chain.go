package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/flitsinc/agentboard/internal/embedding"

// Chain tries providers in order and returns the first vector produced.
//
// A provider without credentials passes to the next one. A missing model
// passes to the next provider of the same family only: once a family has
// accepted the credential it owns the request, so vectors of different
// families never mix within one deployment.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Chain{providers: out}
}

func (c *Chain) Providers() []Provider { return c.providers }

func (c *Chain) Embed(ctx context.Context, text string) (vec []float32, retErr error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "embedding.embed",
		trace.WithAttributes(attribute.Int("embedding.text_len", len(text))),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		}
		span.End()
	}()

	var owner string
	var lastErr error
	for _, p := range c.providers {
		if owner != "" && p.Family() != owner {
			continue
		}
		vec, err := p.Embed(ctx, text)
		if err == nil {
			span.SetAttributes(
				attribute.String("embedding.provider", p.Family()),
				attribute.String("embedding.model", p.Model()),
				attribute.Int("embedding.dimensions", len(vec)),
			)
			return vec, nil
		}
		switch {
		case errors.Is(err, ErrNotConfigured):
			continue
		case errors.Is(err, ErrModelNotFound):
			owner = p.Family()
			lastErr = err
		default:
			return nil, fmt.Errorf("%s/%s: %w", p.Family(), p.Model(), err)
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNotConfigured
}
