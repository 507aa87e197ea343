package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/config"
	"github.com/flitsinc/agentboard/internal/embedding"
	"github.com/flitsinc/agentboard/internal/pgstore"
	"github.com/flitsinc/agentboard/internal/search"
	"github.com/flitsinc/agentboard/internal/state"
)

// repository is what a storage backend offers: the board rows plus their
// embeddings and a nearest-neighbour index over them.
type repository interface {
	board.Repository
	embedding.VectorStore
	search.Index
}

// app holds the process-wide pieces every subcommand needs.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	repo      repository
	storeName string
	embedder  embedding.Embedder
	providers []string
	closers   []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger}

	repo, name, closeFn, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.repo, a.storeName = repo, name
	a.closers = append(a.closers, closeFn)

	if cfg.SeedDefaults {
		if err := board.Seed(ctx, repo, board.DefaultMembers, time.Now()); err != nil {
			a.Close()
			return nil, err
		}
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, p := range providers {
		a.providers = append(a.providers, p.Family()+"/"+p.Model())
	}
	if len(providers) > 0 {
		a.embedder = embedding.NewChain(providers...)
	} else {
		logger.Warn("no embedding provider configured; search is unavailable")
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) component(name string) logrus.FieldLogger {
	return a.log.WithField("component", name)
}

// service wires the board service. A nil notifier disables change signals.
func (a *app) service(notifier board.Notifier, jobs board.Submitter) *board.Service {
	opts := []board.Option{
		board.WithLogger(a.component("board")),
		board.WithDefaultActor(a.cfg.DefaultActor),
		board.WithSubmitter(jobs),
	}
	if notifier != nil {
		opts = append(opts, board.WithNotifier(notifier))
	}
	if a.embedder != nil {
		opts = append(opts,
			board.WithIndexer(embedding.NewIndexer(a.embedder, a.repo, a.component("indexer"))),
			board.WithSearcher(search.New(a.embedder, a.repo, a.component("search"))),
		)
	}
	return board.NewService(a.repo, opts...)
}

// redisClient returns nil when no relay is configured.
func (a *app) redisClient() *redis.Client {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client
}

func openRepository(ctx context.Context, cfg config.Config) (repository, string, func(), error) {
	if cfg.UsePostgres() {
		s, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, "", nil, err
		}
		return s, "postgres", s.Close, nil
	}
	db, err := state.Open(cfg.DBPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open db: %w", err)
	}
	return state.NewStore(db), "sqlite", func() { _ = db.Close() }, nil
}

// buildProviders orders the embedding chain: the Gemini primary model, the
// Gemini fallback model for when the primary is retired, then OpenAI. Every
// provider is asked for vectors of embedding_dimensions, the width of the
// stored column, and a model that cannot produce that width is rejected.
func buildProviders(cfg config.Config) ([]embedding.Provider, error) {
	dims := cfg.EmbeddingDimensions
	var out []embedding.Provider
	add := func(p embedding.Provider) error {
		if err := embedding.CheckDimensions(p.Model(), dims); err != nil {
			return fmt.Errorf("%s embedding: %w", p.Family(), err)
		}
		out = append(out, p)
		return nil
	}
	if cfg.GeminiAPIKey != "" {
		if err := add(embedding.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, dims)); err != nil {
			return nil, err
		}
		if cfg.GeminiFallbackModel != "" && cfg.GeminiFallbackModel != cfg.GeminiModel {
			if err := add(embedding.NewGemini(cfg.GeminiAPIKey, cfg.GeminiFallbackModel, dims)); err != nil {
				return nil, err
			}
		}
	}
	if cfg.OpenAIAPIKey != "" {
		if err := add(embedding.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, dims)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
