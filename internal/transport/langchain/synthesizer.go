// Package langchain synthesizes answers through langchaingo, which targets local
// OpenAI-compatible servers (llama.cpp, Ollama, LM Studio) as well as hosted APIs.
package langchain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/prompt"
)

// Config holds the langchaingo backend settings.
type Config struct {
	BaseURL string
	// APIKey may be empty for local servers that don't require authentication.
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Provider     string
	Logger       *zap.Logger
}

// Synthesizer writes a recommendation answer from ranked movies through an llms.Model.
type Synthesizer struct {
	model       llms.Model
	modelName   string
	maxTokens   int
	temperature float64
	prompts     *prompt.Builder
	provider    string
	logger      *zap.Logger
}

// New creates a synthesizer backed by the langchaingo OpenAI client.
func New(cfg *Config) (*Synthesizer, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}
	return NewWithModel(client, cfg), nil
}

// NewWithModel wraps an existing llms.Model.
func NewWithModel(model llms.Model, cfg *Config) *Synthesizer {
	return &Synthesizer{
		model:       model,
		modelName:   cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		prompts:     prompt.New(cfg.SystemPrompt),
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Summarize asks the model to answer query from the ranked movies.
// Failures wrap domain.ErrSynthesisUnavailable.
func (s *Synthesizer) Summarize(ctx context.Context, ranked []result.Ranked, query string) (string, error) {
	content := toMessageContent(s.prompts.Build(query, ranked))

	opts := []llms.CallOption{llms.WithTemperature(s.temperature)}
	if s.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.maxTokens))
	}

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, content, opts...)
	duration := time.Since(start)
	metrics.SynthesisRequestDuration.WithLabelValues(s.provider, s.modelName).Observe(duration.Seconds())

	if err != nil {
		metrics.SynthesisErrorsTotal.WithLabelValues(s.provider, s.modelName).Inc()
		return "", fmt.Errorf("generate content: %w: %w", domain.ErrSynthesisUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		metrics.SynthesisErrorsTotal.WithLabelValues(s.provider, s.modelName).Inc()
		return "", fmt.Errorf("no choices returned: %w", domain.ErrSynthesisUnavailable)
	}

	s.logger.Debug("Content generated",
		zap.String("provider", s.provider),
		zap.String("model", s.modelName),
		zap.Duration("duration", duration),
		zap.Int("context_movies", len(ranked)),
		zap.String("stop_reason", resp.Choices[0].StopReason),
	)

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func toMessageContent(msgs []prompt.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, len(msgs))
	for i, m := range msgs {
		role := llms.ChatMessageTypeHuman
		if m.Role == prompt.RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		out[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		}
	}
	return out
}
