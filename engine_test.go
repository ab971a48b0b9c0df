package ticketrag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/ticketrag/ai/mock"
	"github.com/relaydesk/ticketrag/ingest/csvdir"
)

const testDim = 8

func newTestEngine(t *testing.T) (*Engine, *mock.MockEmbedder, *mock.MockSynthesizer) {
	t.Helper()

	embedder := mock.NewMockEmbedderWithDimension(testDim)
	synthesizer := mock.NewMockSynthesizer()

	engine, err := NewEngine("",
		WithInMemoryStorage(),
		WithDimension(testDim),
		WithProvider(mock.NewMockProviderWithServices(embedder, synthesizer)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine, embedder, synthesizer
}

func writeTickets(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestEngineEndToEnd(t *testing.T) {
	engine, _, synthesizer := newTestEngine(t)

	dir := t.TempDir()
	writeTickets(t, dir, "tickets_001.csv",
		"ticket_id,timestamp,customer_id,subject,body\n"+
			"TKT-000001,2026-08-30T10:00:00Z,CUST-001,Login broken,Cannot sign in via SSO\n"+
			"TKT-000002,2026-08-30T10:05:00Z,CUST-002,Payment declined,Card rejected at checkout\n")

	source, err := csvdir.NewSource(dir)
	require.NoError(t, err)
	defer source.Close()

	pipeline, err := engine.NewPipeline(source)
	require.NoError(t, err)
	defer pipeline.Release()

	n, err := pipeline.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, engine.Store().Snapshot().Len())

	synthesizer.Response = "Cards are declined when the processor rejects the charge (TKT-000002)."

	answerer, err := engine.NewAnswerer()
	require.NoError(t, err)

	result, err := answerer.Answer(context.Background(), "why was a payment declined?")
	require.NoError(t, err)
	assert.Equal(t, synthesizer.Response, result.Answer)
	assert.NotEmpty(t, result.Sources)
}

func TestEngineRebuildsIndexOnStartup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tickets.db")

	embedder := mock.NewMockEmbedderWithDimension(testDim)
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockSynthesizer())

	engine, err := NewEngine(dbPath, WithDimension(testDim), WithProvider(provider))
	require.NoError(t, err)

	ticketsDir := t.TempDir()
	writeTickets(t, ticketsDir, "tickets.csv",
		"ticket_id,timestamp,customer_id,subject,body\n"+
			"TKT-000001,2026-08-30T10:00:00Z,CUST-001,Subject,Body\n")

	source, err := csvdir.NewSource(ticketsDir)
	require.NoError(t, err)

	pipeline, err := engine.NewPipeline(source)
	require.NoError(t, err)
	_, err = pipeline.ProcessOnce(context.Background())
	require.NoError(t, err)

	pipeline.Release()
	source.Close()
	require.NoError(t, engine.Close())

	// Reopen: the index comes back from storage without re-ingesting.
	engine2, err := NewEngine(dbPath, WithDimension(testDim), WithProvider(provider))
	require.NoError(t, err)
	defer engine2.Close()

	snap := engine2.Store().Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "TKT-000001", snap.Record(0).SourceID)
}

func TestEngineAccessors(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	assert.NotNil(t, engine.RecordRepository())
	assert.NotNil(t, engine.CursorRepository())
	assert.NotNil(t, engine.Store())
	assert.NotNil(t, engine.Provider())

	retriever, err := engine.NewRetriever()
	require.NoError(t, err)
	assert.NotNil(t, retriever)
}
