package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// VectorStore persists computed embeddings. A write only lands while the
// row's index text still equals text; otherwise it returns ErrStale and
// leaves the row alone.
type VectorStore interface {
	SetTaskEmbedding(ctx context.Context, id int64, text string, vec []float32) error
	SetDocumentEmbedding(ctx context.Context, id int64, text string, vec []float32) error
}

// Indexer computes and stores embeddings. A failed attempt leaves the stored
// vector untouched and is only logged; there is no retry. Jobs for the same
// row may finish out of order: the store drops any vector whose text has
// since been edited.
type Indexer struct {
	embedder Embedder
	store    VectorStore
	log      logrus.FieldLogger
}

func NewIndexer(embedder Embedder, store VectorStore, log logrus.FieldLogger) *Indexer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Indexer{embedder: embedder, store: store, log: log}
}

func (ix *Indexer) IndexTask(ctx context.Context, id int64, text string) error {
	return ix.index(ctx, "task", id, text, ix.store.SetTaskEmbedding)
}

func (ix *Indexer) IndexDocument(ctx context.Context, id int64, text string) error {
	return ix.index(ctx, "document", id, text, ix.store.SetDocumentEmbedding)
}

func (ix *Indexer) index(ctx context.Context, kind string, id int64, text string, save func(context.Context, int64, string, []float32) error) error {
	entry := ix.log.WithFields(logrus.Fields{"kind": kind, "id": id})
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		entry.WithError(err).Warn("embedding failed")
		return fmt.Errorf("embed %s %d: %w", kind, id, err)
	}
	if err := save(ctx, id, text, vec); err != nil {
		if errors.Is(err, ErrStale) {
			entry.Debug("embedding superseded by a newer edit")
			return fmt.Errorf("store %s %d embedding: %w", kind, id, err)
		}
		entry.WithError(err).Warn("store embedding failed")
		return fmt.Errorf("store %s %d embedding: %w", kind, id, err)
	}
	entry.WithField("dimensions", len(vec)).Debug("embedding stored")
	return nil
}
