// Package app is the composition root shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/config"
	"github.com/kailas-cloud/moviesearch/internal/db"
	dbRedis "github.com/kailas-cloud/moviesearch/internal/db/redis"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/repository/embcache"
	movierepo "github.com/kailas-cloud/moviesearch/internal/repository/movie"
	searchrepo "github.com/kailas-cloud/moviesearch/internal/repository/search"
	langchainSynth "github.com/kailas-cloud/moviesearch/internal/transport/langchain"
	openaiTransport "github.com/kailas-cloud/moviesearch/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/moviesearch/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/moviesearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/moviesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Store   db.Store
	Movies  *movierepo.Repo
	Catalog *cataloguc.Service
	Search  *searchuc.Service
	Health  *healthuc.Service
}

// New connects to the database and assembles every service from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := newStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	a, err := build(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, store db.Store, logger *zap.Logger) (*App, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterCatalogMetrics()

	schema, err := buildSchema(cfg.Index)
	if err != nil {
		return nil, err
	}
	movies := movierepo.New(store, schema)

	queryEmbedder, err := buildQueryEmbedder(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	docEmbedder := buildDocumentEmbedder(cfg, logger)

	synth, err := buildSynthesizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	modeWeights, err := cfg.Ranking.Weights()
	if err != nil {
		return nil, fmt.Errorf("ranking weights: %w", err)
	}
	sources := searchrepo.New(store, searchrepo.Options{
		Dimensions:   schema.Dimensions,
		Distance:     schema.Distance,
		EFRuntime:    cfg.Ranking.EFRuntime,
		ExactRescore: cfg.Ranking.ExactRescore,
	})

	searchSvc := searchuc.New(sources, sources, queryEmbedder, synth, searchuc.Config{
		Weights:       modeWeights,
		Candidates:    cfg.Ranking.Candidates,
		SynthesisTopK: cfg.Synthesis.TopK,
	})

	catalogSvc := cataloguc.New(movies, docEmbedder, cataloguc.Config{
		Dimensions: schema.Dimensions,
		BatchSize:  cfg.Ingest.BatchSize,
		Workers:    cfg.Ingest.Workers,
		Reembed:    cfg.Ingest.Reembed,
	}, logger)

	healthSvc := healthuc.New(store).
		With("index", healthuc.CheckerFunc(indexCheck(movies))).
		With("embedding", asChecker(queryEmbedder))
	if synth != nil {
		healthSvc.With("synthesis", asChecker(synth))
	}

	return &App{
		Store:   store,
		Movies:  movies,
		Catalog: catalogSvc,
		Search:  searchSvc,
		Health:  healthSvc,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() {
	a.Store.Close()
}

// EnsureIndex creates the movie index when it is missing.
func (a *App) EnsureIndex(ctx context.Context) error {
	if err := a.Catalog.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

func newStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:            cfg.Addrs,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.DB,
			ConnWriteTimeout: time.Duration(cfg.WriteTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func buildSchema(cfg config.IndexConfig) (movierepo.Schema, error) {
	distance, err := db.ParseDistance(cfg.Distance)
	if err != nil {
		return movierepo.Schema{}, fmt.Errorf("index distance: %w", err)
	}
	algorithm, err := db.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return movierepo.Schema{}, fmt.Errorf("index algorithm: %w", err)
	}
	return movierepo.Schema{
		Dimensions:  cfg.Dimensions,
		Distance:    distance,
		Algorithm:   algorithm,
		M:           cfg.HNSWM,
		EFConstruct: cfg.HNSWEFConstruct,
		TitleWeight: cfg.TitleWeight,
	}, nil
}

func providerEmbedder(cfg *config.Config, logger *zap.Logger) *openaiTransport.Embedder {
	ec := cfg.Embedding
	embCfg := &openaiTransport.EmbedderConfig{
		ClientConfig: openaiTransport.ClientConfig{
			APIKey:  ec.APIKey,
			BaseURL: ec.BaseURL,
			Timeout: time.Duration(ec.TimeoutSec) * time.Second,
		},
		Model:    ec.Model,
		User:     ec.User,
		Provider: ec.Provider,
		Logger:   logger,
	}
	if ec.SendDimensions {
		embCfg.Dimensions = cfg.Index.Dimensions
	}
	return openaiTransport.NewEmbedder(embCfg)
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
func buildQueryEmbedder(cfg *config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, error) {
	var embedder domain.Embedder = providerEmbedder(cfg, logger)

	cc := cfg.Storage.EmbeddingCache
	if !cc.Disabled {
		cached, err := embcache.New(embedder, store, embcache.Options{
			Namespace:  cfg.Embedding.Model,
			MemorySize: cc.MemorySize,
			TTL:        cc.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		embedder = cached
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Index.Dimensions, logger,
	)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction), nil
	}
	return embedder, nil
}

// buildDocumentEmbedder skips the cache: plots are embedded once per load.
func buildDocumentEmbedder(cfg *config.Config, logger *zap.Logger) domain.Embedder {
	return embeddinguc.NewInstrumentedEmbedder(
		providerEmbedder(cfg, logger), cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Index.Dimensions, logger,
	)
}

// buildSynthesizer returns a nil interface when synthesis is disabled.
func buildSynthesizer(cfg *config.Config, logger *zap.Logger) (searchuc.Synthesizer, error) {
	sc := cfg.Synthesis
	if !sc.Enabled {
		return nil, nil
	}
	temperature := openaiTransport.DefaultTemperature
	if sc.Temperature != nil {
		temperature = *sc.Temperature
	}

	switch sc.Provider {
	case config.SynthesisOpenAI:
		return openaiTransport.NewSynthesizer(&openaiTransport.SynthesizerConfig{
			ClientConfig: openaiTransport.ClientConfig{
				APIKey:  sc.APIKey,
				BaseURL: sc.BaseURL,
				Timeout: time.Duration(sc.TimeoutSec) * time.Second,
			},
			Model:        sc.Model,
			MaxTokens:    sc.MaxTokens,
			Temperature:  float32(temperature),
			SystemPrompt: sc.SystemPrompt,
			Provider:     sc.Provider,
			Logger:       logger,
		}), nil
	case config.SynthesisLangchain:
		s, err := langchainSynth.New(&langchainSynth.Config{
			BaseURL:      sc.BaseURL,
			APIKey:       sc.APIKey,
			Model:        sc.Model,
			MaxTokens:    sc.MaxTokens,
			Temperature:  temperature,
			SystemPrompt: sc.SystemPrompt,
			Provider:     sc.Provider,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("langchain synthesizer: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", sc.Provider)
	}
}

// asChecker exposes a component's HealthCheck when it has one.
func asChecker(v any) healthuc.Checker {
	if hc, ok := v.(domain.HealthChecker); ok {
		return hc
	}
	return nil
}

func indexCheck(movies *movierepo.Repo) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		exists, err := movies.IndexExists(ctx)
		if err != nil {
			return fmt.Errorf("index check: %w", err)
		}
		if !exists {
			return errors.New("movie index does not exist")
		}
		return nil
	}
}
