package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

// Defaults for Config.
const (
	DefaultBatchSize = 100
	maxLineBytes     = 4 << 20
)

// Config tunes ingestion.
type Config struct {
	// Dimensions is the deployment embedding dimensionality.
	Dimensions int
	// BatchSize is how many movies are written per store round-trip.
	BatchSize int
	// Workers bounds concurrent batches; defaults to NumCPU/2.
	Workers int
	// Reembed ignores embeddings shipped in the file and recomputes them.
	Reembed bool
}

// Stats summarizes the catalog.
type Stats struct {
	IndexExists bool
	Movies      int
}

// LoadReport summarizes one Load run.
type LoadReport struct {
	Read     int64
	Loaded   int64
	Embedded int64
	Skipped  int64
	Failed   int64
	Tokens   int64
	Duration time.Duration
}

// Service administers the movie catalog: index lifecycle and ingestion.
type Service struct {
	repo     Repository
	embedder Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates a catalog service. embedder may be nil; movies without an embedding are then skipped.
func New(repo Repository, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = max(runtime.NumCPU()/2, 1)
	}
	return &Service{repo: repo, embedder: embedder, cfg: cfg, logger: logger}
}

// CreateIndex creates the movie index. Returns domain.ErrIndexExists if it is already there.
func (s *Service) CreateIndex(ctx context.Context) error {
	if err := s.repo.CreateIndex(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("Movie index created")
	return nil
}

// EnsureIndex creates the movie index unless it already exists.
func (s *Service) EnsureIndex(ctx context.Context) error {
	err := s.CreateIndex(ctx)
	if errors.Is(err, domain.ErrIndexExists) {
		return nil
	}
	return err
}

// DropIndex removes the movie index; deleteDocs also removes every stored movie.
func (s *Service) DropIndex(ctx context.Context, deleteDocs bool) error {
	if err := s.repo.DropIndex(ctx, deleteDocs); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	s.logger.Info("Movie index dropped", zap.Bool("delete_docs", deleteDocs))
	return nil
}

// Stats reports whether the index exists and how many movies it covers.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	exists, err := s.repo.IndexExists(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("index exists: %w", err)
	}
	if !exists {
		return Stats{}, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count movies: %w", err)
	}
	return Stats{IndexExists: true, Movies: n}, nil
}

// Get returns a stored movie.
func (s *Service) Get(ctx context.Context, id string) (movie.Movie, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return movie.Movie{}, fmt.Errorf("get movie %s: %w", id, err)
	}
	return m, nil
}

// Delete removes a stored movie.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete movie %s: %w", id, err)
	}
	return nil
}

// Load reads JSONL records from r and stores them in batches on a worker pool.
// Invalid records are skipped, failed batches are counted; only read errors and
// cancellation abort the run.
func (s *Service) Load(ctx context.Context, r io.Reader) (LoadReport, error) {
	start := time.Now()

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return LoadReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg  sync.WaitGroup
		cnt loadCounters
	)
	submit := func(batch []Record) error {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s.processBatch(ctx, batch, &cnt)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit batch: %w", err)
		}
		return nil
	}

	readErr := s.scan(ctx, r, &cnt, submit)
	wg.Wait()

	report := cnt.report(time.Since(start))
	s.logger.Info("Movie load finished",
		zap.Int64("read", report.Read),
		zap.Int64("loaded", report.Loaded),
		zap.Int64("embedded", report.Embedded),
		zap.Int64("skipped", report.Skipped),
		zap.Int64("failed", report.Failed),
		zap.Int64("embedding_tokens", report.Tokens),
		zap.Duration("duration", report.Duration),
	)
	if readErr != nil {
		return report, readErr
	}
	return report, nil
}

// scan splits the stream into batches; it stops at the first read error or cancellation.
func (s *Service) scan(ctx context.Context, r io.Reader, cnt *loadCounters, submit func([]Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	batch := make([]Record, 0, s.cfg.BatchSize)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load cancelled: %w", err)
		}
		line++
		rec, err := parseRecord(sc.Bytes())
		if errors.Is(err, errEmptyLine) {
			continue
		}
		cnt.read.Add(1)
		if err != nil {
			s.skip(cnt, zap.Int("line", line), zap.Error(err))
			continue
		}
		batch = append(batch, rec)
		if len(batch) == s.cfg.BatchSize {
			if err := submit(batch); err != nil {
				return err
			}
			batch = make([]Record, 0, s.cfg.BatchSize)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", line+1, err)
	}
	if len(batch) > 0 {
		return submit(batch)
	}
	return nil
}

func (s *Service) processBatch(ctx context.Context, batch []Record, cnt *loadCounters) {
	start := time.Now()
	defer func() { metrics.IngestBatchDuration.Observe(time.Since(start).Seconds()) }()

	movies := make([]movie.Movie, 0, len(batch))
	for i := range batch {
		m, ok := s.toMovie(ctx, &batch[i], cnt)
		if ok {
			movies = append(movies, m)
		}
	}
	if len(movies) == 0 {
		return
	}

	if err := s.repo.UpsertBatch(ctx, movies); err != nil {
		cnt.failed.Add(int64(len(movies)))
		metrics.IngestRecordsTotal.WithLabelValues("failed").Add(float64(len(movies)))
		s.logger.Error("Failed to store movie batch", zap.Int("size", len(movies)), zap.Error(err))
		return
	}
	cnt.loaded.Add(int64(len(movies)))
	metrics.IngestRecordsTotal.WithLabelValues("loaded").Add(float64(len(movies)))
}

// toMovie validates a record and fills in its embedding when needed.
func (s *Service) toMovie(ctx context.Context, rec *Record, cnt *loadCounters) (movie.Movie, bool) {
	id, err := rec.MovieID()
	if err != nil {
		s.skip(cnt, zap.Error(err))
		return movie.Movie{}, false
	}

	emb := rec.PlotEmbedding
	if s.cfg.Reembed {
		emb = nil
	}
	if len(emb) == 0 {
		if s.embedder == nil {
			s.skip(cnt, zap.String("id", id), zap.String("reason", "no embedding and no embedder"))
			return movie.Movie{}, false
		}
		draft := movie.Reconstruct(id, rec.Title, rec.Plot, rec.FullPlot, nil)
		res, err := s.embedder.Embed(ctx, draft.EmbeddingText())
		if err != nil {
			cnt.failed.Add(1)
			metrics.IngestRecordsTotal.WithLabelValues("failed").Inc()
			s.logger.Warn("Failed to embed plot", zap.String("id", id), zap.Error(err))
			return movie.Movie{}, false
		}
		emb = res.Embedding
		cnt.embedded.Add(1)
		cnt.tokens.Add(int64(res.TotalTokens))
	}

	m, err := movie.New(id, rec.Title, rec.Plot, rec.FullPlot, emb, s.cfg.Dimensions)
	if err != nil {
		s.skip(cnt, zap.String("id", id), zap.Error(err))
		return movie.Movie{}, false
	}
	return m, true
}

func (s *Service) skip(cnt *loadCounters, fields ...zap.Field) {
	cnt.skipped.Add(1)
	metrics.IngestRecordsTotal.WithLabelValues("skipped").Inc()
	s.logger.Warn("Skipping movie record", fields...)
}

type loadCounters struct {
	read, loaded, embedded, skipped, failed, tokens atomic.Int64
}

func (c *loadCounters) report(d time.Duration) LoadReport {
	return LoadReport{
		Read:     c.read.Load(),
		Loaded:   c.loaded.Load(),
		Embedded: c.embedded.Load(),
		Skipped:  c.skipped.Load(),
		Failed:   c.failed.Load(),
		Tokens:   c.tokens.Load(),
		Duration: d,
	}
}
