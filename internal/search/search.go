package search

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/embedding"
)

// Limit is the number of rows a search returns at most.
const Limit = 5

// Index answers nearest-neighbour queries over stored embeddings.
type Index interface {
	NearestTasks(ctx context.Context, query []float32, boardID string, limit int) ([]board.Task, error)
	NearestDocuments(ctx context.Context, query []float32, boardID string, limit int) ([]board.Document, error)
}

// Searcher implements board.Searcher.
type Searcher struct {
	embedder embedding.Embedder
	index    Index
	log      logrus.FieldLogger
}

func New(embedder embedding.Embedder, index Index, log logrus.FieldLogger) *Searcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Searcher{embedder: embedder, index: index, log: log}
}

func (s *Searcher) Tasks(ctx context.Context, query, boardID string) ([]board.Task, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	items, err := s.index.NearestTasks(ctx, vec, boardID, Limit)
	if err != nil {
		return nil, board.Internal("search tasks", err)
	}
	return items, nil
}

func (s *Searcher) Documents(ctx context.Context, query, boardID string) ([]board.Document, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	items, err := s.index.NearestDocuments(ctx, vec, boardID, Limit)
	if err != nil {
		return nil, board.Internal("search documents", err)
	}
	return items, nil
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, board.Unavailable("no embedding provider configured", nil)
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err == nil {
		return vec, nil
	}
	if errors.Is(err, embedding.ErrNotConfigured) {
		return nil, board.Unavailable("no embedding provider configured", err)
	}
	s.log.WithError(err).Warn("query embedding failed")
	return nil, board.Internal("embed query", err)
}
