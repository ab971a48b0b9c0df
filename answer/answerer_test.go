package answer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/ai/mock"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/index"
	"github.com/relaydesk/ticketrag/search"
)

func newFixtureRetriever(t *testing.T, embedder *mock.MockEmbedder, records ...*core.Record) *search.Retriever {
	t.Helper()
	store, err := index.NewStore(3)
	require.NoError(t, err)
	if len(records) > 0 {
		_, err = store.Append(context.Background(), records...)
		require.NoError(t, err)
	}
	r, err := search.NewRetriever(store, embedder)
	require.NoError(t, err)
	return r
}

func ticketRecord(sourceID, text string, vector []float32) *core.Record {
	return &core.Record{
		Id:        core.IDFromContent(sourceID),
		SourceID:  sourceID,
		Text:      text,
		Timestamp: time.Now().Add(-time.Hour),
		Vector:    vector,
	}
}

func TestNewAnswererValidation(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	retriever := newFixtureRetriever(t, embedder)
	synth := mock.NewMockSynthesizer()

	_, err := NewAnswerer(nil, synth)
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewAnswerer(retriever, nil)
	assert.ErrorIs(t, err, ErrSynthesizerRequired)

	_, err = NewAnswerer(retriever, synth, WithTopK(0))
	assert.ErrorIs(t, err, search.ErrInvalidLimit)

	a, err := NewAnswerer(retriever, synth)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestAnswerEmptyQuery(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	a, err := NewAnswerer(newFixtureRetriever(t, embedder), mock.NewMockSynthesizer())
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAnswerEmptyIndexSkipsSynthesis(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	synth := mock.NewMockSynthesizer()
	a, err := NewAnswerer(newFixtureRetriever(t, embedder), synth)
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), "how do I reset my password?")
	require.NoError(t, err)

	assert.Equal(t, "No relevant tickets found for query: 'how do I reset my password?'", result.Answer)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, synth.CallCount())
}

func TestAnswerGroundsSynthesisInSources(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	embedder.Fixtures = map[string][]float32{
		"payment failed": {0, 1, 0},
	}
	records := []*core.Record{
		ticketRecord("TKT-000001", "Login loop on SSO \n user cannot sign in", []float32{1, 0, 0}),
		ticketRecord("TKT-000002", "Payment declined \n card rejected at checkout", []float32{0, 1, 0}),
	}
	synth := mock.NewMockSynthesizer()
	synth.Response = "Payments are declined when the card processor rejects the charge (TKT-000002)."

	a, err := NewAnswerer(newFixtureRetriever(t, embedder, records...), synth)
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), "payment failed")
	require.NoError(t, err)

	assert.Equal(t, synth.Response, result.Answer)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "TKT-000002", result.Sources[0].Record.SourceID)

	assert.Equal(t, 1, synth.CallCount())
	assert.Equal(t, "payment failed", synth.LastQuery())
	require.Len(t, synth.LastContext(), 2)
	assert.Equal(t, ai.ContextRecord{
		ID:   "TKT-000002",
		Text: "Payment declined \n card rejected at checkout",
	}, synth.LastContext()[0])
}

func TestAnswerTopKLimitsSources(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	embedder.Fixtures = map[string][]float32{"q": {1, 0, 0}}
	records := []*core.Record{
		ticketRecord("TKT-000001", "a", []float32{1, 0, 0}),
		ticketRecord("TKT-000002", "b", []float32{0.9, 0.1, 0}),
		ticketRecord("TKT-000003", "c", []float32{0.8, 0.2, 0}),
	}
	synth := mock.NewMockSynthesizer()

	a, err := NewAnswerer(newFixtureRetriever(t, embedder, records...), synth, WithTopK(2))
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)
	assert.Len(t, synth.LastContext(), 2)
}

func TestAnswerSynthesisFailure(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	embedder.Fixtures = map[string][]float32{"q": {1, 0, 0}}
	synth := mock.NewMockSynthesizer()
	synth.Err = errors.New("model unavailable")

	a, err := NewAnswerer(newFixtureRetriever(t, embedder,
		ticketRecord("TKT-000001", "a", []float32{1, 0, 0})), synth)
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrSynthesisFailed)
	// No retry on synthesis failure.
	assert.Equal(t, 1, synth.CallCount())
}

func TestAnswerRetrievalFailurePropagates(t *testing.T) {
	embedder := mock.NewMockEmbedderWithDimension(3)
	wantErr := errors.New("embedding service down")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, wantErr
	}
	synth := mock.NewMockSynthesizer()

	a, err := NewAnswerer(newFixtureRetriever(t, embedder,
		ticketRecord("TKT-000001", "a", []float32{1, 0, 0})), synth)
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, synth.CallCount())
}
