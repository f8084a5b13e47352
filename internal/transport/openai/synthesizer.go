package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/prompt"
)

// Synthesis defaults.
const (
	DefaultChatModel   = "gpt-4"
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)

// SynthesizerConfig holds the chat completion settings.
type SynthesizerConfig struct {
	ClientConfig
	Model        string
	MaxTokens    int
	Temperature  float32
	SystemPrompt string
	Provider     string
	Logger       *zap.Logger
}

// Synthesizer writes a recommendation answer from ranked movies via chat completions.
type Synthesizer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	prompts     *prompt.Builder
	provider    string
	logger      *zap.Logger
}

// NewSynthesizer creates a chat-completions answer synthesizer.
func NewSynthesizer(cfg *SynthesizerConfig) *Synthesizer {
	s := &Synthesizer{
		client:      newClient(cfg.ClientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		prompts:     prompt.New(cfg.SystemPrompt),
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
	if s.model == "" {
		s.model = DefaultChatModel
	}
	if s.maxTokens <= 0 {
		s.maxTokens = DefaultMaxTokens
	}
	return s
}

// Summarize asks the model to answer query from the ranked movies.
// Failures wrap domain.ErrSynthesisUnavailable.
func (s *Synthesizer) Summarize(ctx context.Context, ranked []result.Ranked, query string) (string, error) {
	msgs := s.prompts.Build(query, ranked)
	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    toChatMessages(msgs),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	metrics.SynthesisRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	if err != nil {
		metrics.SynthesisErrorsTotal.WithLabelValues(s.provider, s.model).Inc()
		return "", apiError("chat", err, domain.ErrSynthesisUnavailable)
	}
	if len(resp.Choices) == 0 {
		metrics.SynthesisErrorsTotal.WithLabelValues(s.provider, s.model).Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrSynthesisUnavailable)
	}

	s.logger.Debug("Chat completion finished",
		zap.String("provider", s.provider),
		zap.String("model", s.model),
		zap.Duration("duration", duration),
		zap.Int("context_movies", len(ranked)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Synthesizer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toChatMessages(msgs []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == prompt.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
