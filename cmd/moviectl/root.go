package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/app"
	"github.com/kailas-cloud/moviesearch/internal/config"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/moviesearch/internal/logger"
	cataloguc "github.com/kailas-cloud/moviesearch/internal/usecase/catalog"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
)

// catalogAPI is what the admin commands need from the catalog service.
type catalogAPI interface {
	CreateIndex(ctx context.Context) error
	DropIndex(ctx context.Context, deleteDocs bool) error
	Stats(ctx context.Context) (cataloguc.Stats, error)
	Load(ctx context.Context, r io.Reader) (cataloguc.LoadReport, error)
	Get(ctx context.Context, id string) (movie.Movie, error)
	Delete(ctx context.Context, id string) error
}

type searchAPI interface {
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
}

var (
	envFlag    string
	configPath string
	logLevel   string

	catalogService catalogAPI
	searchService  searchAPI

	// initServices connects the services; tests replace it.
	initServices = connectServices
	closeService func()
)

var rootCmd = &cobra.Command{
	Use:           "moviectl",
	Short:         "Administer and query the movie search index",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[annotationNoServices] == "true" {
			return nil
		}
		return initServices(cmd.Context())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if closeService != nil {
			closeService()
			closeService = nil
		}
	},
}

const annotationNoServices = "no-services"

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "config environment: local, dev, prod (default $ENV or local)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "explicit config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

func loadConfig() (config.Config, string, error) {
	env := envFlag
	if env == "" {
		env = config.GetEnv()
	}
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

func connectServices(ctx context.Context) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	if env != "prod" {
		env = "local"
	}
	logger, err := logpkg.NewLogger(env, logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return fmt.Errorf("initialize: %w", err)
	}
	logger.Debug("Connected", zap.Strings("db_addrs", cfg.Database.Addrs))

	catalogService = a.Catalog
	searchService = a.Search
	closeService = func() {
		a.Close()
		_ = logger.Sync()
	}
	return nil
}

var errNotConfigured = errors.New("services not configured")
