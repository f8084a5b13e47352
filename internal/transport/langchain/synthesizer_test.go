package langchain

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/result"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/prompt"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// fakeModel records the last call and replays a canned response.
type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(
	_ context.Context, messages []llms.MessageContent, options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, p string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, p, options...)
}

func newTestSynthesizer(model llms.Model) *Synthesizer {
	return NewWithModel(model, &Config{
		Model:       "llama3",
		MaxTokens:   300,
		Temperature: 0.7,
		Provider:    "local",
		Logger:      zap.NewNop(),
	})
}

func testRanked() []result.Ranked {
	m := movie.Reconstruct("m1", "Alien", "A crew meets a creature.", "", nil)
	return []result.Ranked{result.NewRanked(result.NewLexical(m, 2), 1.2)}
}

func TestSummarize(t *testing.T) {
	fm := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: "\nThe following movies are the most recommended to you.<br>\n", StopReason: "stop"},
	}}}

	answer, err := newTestSynthesizer(fm).Summarize(context.Background(), testRanked(), "space horror")
	require.NoError(t, err)
	assert.Equal(t, "The following movies are the most recommended to you.<br>", answer)

	require.Len(t, fm.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, fm.messages[0].Role)
	assert.Equal(t, llms.TextPart(prompt.DefaultSystem), fm.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, fm.messages[2].Role)
	assert.Equal(t, llms.TextPart("Context:\n[1] Alien - A crew meets a creature."), fm.messages[2].Parts[0])

	assert.InDelta(t, 0.7, fm.opts.Temperature, 1e-9)
	assert.Equal(t, 300, fm.opts.MaxTokens)
}

func TestSummarize_ModelError(t *testing.T) {
	fm := &fakeModel{err: errors.New("connection refused")}

	_, err := newTestSynthesizer(fm).Summarize(context.Background(), testRanked(), "q")
	require.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
}

func TestSummarize_NoChoices(t *testing.T) {
	fm := &fakeModel{resp: &llms.ContentResponse{}}

	_, err := newTestSynthesizer(fm).Summarize(context.Background(), testRanked(), "q")
	require.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
}

func TestNew_LocalServerWithoutKey(t *testing.T) {
	s, err := New(&Config{BaseURL: "http://localhost:8081/v1", Model: "llama3", Logger: zap.NewNop()})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
