package cmd

import (
	"context"
	"fmt"
	"time"

	"reviewrec/internal/config"
	"reviewrec/internal/corpus"
	"reviewrec/internal/domain"
	"reviewrec/internal/embedding"
	"reviewrec/internal/embedding/openai"
	"reviewrec/internal/embedding/static"
	"reviewrec/internal/logging"
	"reviewrec/internal/metrics"
	"reviewrec/internal/service"
	"reviewrec/internal/vectorstore"
	"reviewrec/internal/vectorstore/memory"
	"reviewrec/internal/vectorstore/qdrant"
)

// buildRecommender loads the corpus and assembles the configured components.
func buildRecommender(ctx context.Context, cfg *config.AppConfig) (*service.Recommender, error) {
	loader := corpus.NewLoader(logging.Component("corpus"))
	var (
		c   *corpus.Corpus
		err error
	)
	if cfg.DataPath != "" {
		c, err = loader.LoadFile(ctx, cfg.DataPath)
	} else {
		c, err = loader.Load(ctx, cfg.Sources)
	}
	if err != nil {
		return nil, err
	}

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	idx, err := newIndex(cfg.VectorStore)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := service.New(ctx, cfg.Recommender, c.Reviews, emb, idx, logging.Component("recommender"))
	if err != nil {
		return nil, err
	}
	stats := rec.Stats()
	metrics.SetCorpus(stats.Movies)
	logger := logging.Component("cli")
	logger.Info().
		Int("reviews", stats.Reviews).
		Int("movies", len(stats.Movies)).
		Int("vocabulary", stats.Vocabulary).
		Str("embedder", stats.Embedder).
		Dur("took", time.Since(start)).
		Msg("index ready")
	return rec, nil
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Type {
	case "static":
		emb = static.New(cfg.Static.Dimensions)
	case "openai", "":
		client, err := openai.NewClient(openai.Config{
			BaseURL:          cfg.OpenAI.BaseURL,
			APIKeyEnv:        cfg.OpenAI.APIKeyEnv,
			Model:            cfg.OpenAI.Model,
			Timeout:          time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:        cfg.OpenAI.BatchSize,
			FailureThreshold: cfg.OpenAI.FailureThreshold,
		})
		if err != nil {
			return nil, err
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Type)
	}
	if cfg.CacheSize > 0 {
		emb = embedding.NewCachedEmbedder(emb, cfg.CacheSize)
	}
	return emb, nil
}

func newIndex(cfg config.VectorStoreConfig) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", cfg.Type)
	}
}
