package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/weights"
	"github.com/kailas-cloud/moviesearch/internal/logger"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
)

// Defaults for Config.
const (
	DefaultCandidates    = 10
	DefaultSynthesisTopK = 10
)

// Config tunes ranking per deployment.
type Config struct {
	// Weights per merging mode (hybrid, rag). Missing modes fall back to weights.Default.
	Weights map[mode.Mode]weights.Weights
	// Candidates is how many hits each source returns before merging.
	Candidates int
	// SynthesisTopK is how many ranked results are handed to the synthesizer.
	SynthesisTopK int
}

// Response is the outcome of a search.
type Response struct {
	Results []result.Ranked
	// Answer is set only in rag mode.
	Answer  *string
	Elapsed time.Duration
}

// Service dispatches a query to the sources its mode needs and ranks the hits.
type Service struct {
	lexical LexicalSource
	vector  VectorSource
	embed   Embedder
	synth   Synthesizer
	cfg     Config
}

// New creates a search service. synth may be nil when rag mode is not deployed.
func New(lexical LexicalSource, vector VectorSource, embed Embedder, synth Synthesizer, cfg Config) *Service {
	if cfg.Candidates <= 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.SynthesisTopK <= 0 {
		cfg.SynthesisTopK = DefaultSynthesisTopK
	}
	return &Service{lexical: lexical, vector: vector, embed: embed, synth: synth, cfg: cfg}
}

// Search executes a query in lexical, hybrid or rag mode.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()
	m := req.Mode()

	var (
		resp Response
		err  error
	)
	switch m {
	case mode.Lexical:
		resp.Results, err = s.searchLexical(ctx, req)
	case mode.Hybrid:
		resp.Results, err = s.searchMerged(ctx, req)
	case mode.RAG:
		resp.Results, err = s.searchMerged(ctx, req)
		if err == nil {
			resp.Answer, err = s.answer(ctx, resp.Results, req.Query())
		}
	default:
		err = fmt.Errorf("%w: unsupported search mode %q", domain.ErrValidation, m)
	}

	resp.Elapsed = time.Since(start)
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(resp.Elapsed.Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(m), "error").Inc()
		return Response{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(m), "ok").Inc()
	metrics.SearchResults.WithLabelValues(string(m)).Observe(float64(len(resp.Results)))

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("mode", string(m)),
		zap.Int("results", len(resp.Results)),
		zap.Duration("elapsed", resp.Elapsed),
	)
	return resp, nil
}

func (s *Service) searchLexical(ctx context.Context, req *request.Request) ([]result.Ranked, error) {
	hits, err := s.lexical.SearchLexical(ctx, req.Query(), s.candidates(req))
	if err != nil {
		return nil, fmt.Errorf("search lexical: %w", err)
	}
	return RankLexical(hits, req.Limit()), nil
}

// searchMerged embeds the query, fetches both sources concurrently and merges them.
// A failure in either source fails the whole request.
func (s *Service) searchMerged(ctx context.Context, req *request.Request) ([]result.Ranked, error) {
	limit := s.candidates(req)
	var lexHits, vecHits []result.Scored

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.lexical.SearchLexical(gctx, req.Query(), limit)
		if err != nil {
			return fmt.Errorf("search lexical: %w", err)
		}
		lexHits = hits
		return nil
	})
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

		hits, err := s.vector.SearchVector(gctx, emb.Embedding, limit)
		if err != nil {
			return fmt.Errorf("search vector: %w", err)
		}
		vecHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // wrapped inside the group
	}

	return Merge(lexHits, vecHits, s.weightsFor(req.Mode()), req.Limit()), nil
}

func (s *Service) answer(ctx context.Context, ranked []result.Ranked, query string) (*string, error) {
	if s.synth == nil {
		return nil, fmt.Errorf("%w: no synthesizer configured", domain.ErrSynthesisUnavailable)
	}

	top := ranked
	if len(top) > s.cfg.SynthesisTopK {
		top = top[:s.cfg.SynthesisTopK]
	}

	text, err := s.synth.Summarize(ctx, top, query)
	if err != nil {
		if !errors.Is(err, domain.ErrSynthesisUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSynthesisUnavailable, err)
		}
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return &text, nil
}

// candidates is the per-source fetch depth: never fewer than the requested limit.
func (s *Service) candidates(req *request.Request) int {
	return max(s.cfg.Candidates, req.Limit())
}

func (s *Service) weightsFor(m mode.Mode) weights.Weights {
	if w, ok := s.cfg.Weights[m]; ok {
		return w
	}
	return weights.Default(m)
}
