package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerstore "github.com/relaydesk/ticketrag/storage/badger"
)

// fakeSource is an in-memory Source for tests.
type fakeSource struct {
	items   []Item
	err     error
	changes chan struct{}
	fetches int
}

func newFakeSource(items ...Item) *fakeSource {
	return &fakeSource{items: items, changes: make(chan struct{}, 1)}
}

func (f *fakeSource) Fetch(ctx context.Context) ([]Item, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeSource) Changes() <-chan struct{} { return f.changes }
func (f *fakeSource) Close() error             { return nil }

func ticketItem(sourceID string, ts time.Time) Item {
	return Item{
		SourceID:  sourceID,
		Text:      "Subject for " + sourceID + " \n body",
		Timestamp: ts,
	}
}

func TestNewWatcherValidation(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewWatcher(nil, cursorRepo, nil)
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewWatcher(newFakeSource(), nil, nil)
	assert.ErrorIs(t, err, ErrCursorRepositoryRequired)
}

func TestPollFirstRunAdmitsEverything(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := newFakeSource(
		ticketItem("TKT-000002", base.Add(time.Minute)),
		ticketItem("TKT-000001", base),
	)

	w, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Sorted by timestamp.
	assert.Equal(t, "TKT-000001", items[0].SourceID)
	assert.Equal(t, "TKT-000002", items[1].SourceID)
}

func TestPollDeduplicatesWithinBatch(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := newFakeSource(
		ticketItem("TKT-000001", base),
		ticketItem("TKT-000001", base),
	)

	w, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPollAfterCommitFiltersOldItems(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := newFakeSource(
		ticketItem("TKT-000001", base),
		ticketItem("TKT-000002", base.Add(time.Minute)),
	)

	w, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NoError(t, w.Commit(context.Background(), items))

	// Same fetch result: everything is behind the cursor now.
	items, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	// A newer ticket plus a boundary duplicate: only the new one passes.
	source.items = append(source.items,
		ticketItem("TKT-000002", base.Add(time.Minute)),
		ticketItem("TKT-000003", base.Add(2*time.Minute)),
	)
	items, err = w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TKT-000003", items[0].SourceID)
}

func TestPollAdmitsNewIDAtBoundaryTimestamp(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := newFakeSource(ticketItem("TKT-000001", base))

	w, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)

	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Commit(context.Background(), items))

	// Another ticket sharing the exact boundary timestamp is still new.
	source.items = append(source.items, ticketItem("TKT-000002", base))
	items, err = w.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TKT-000002", items[0].SourceID)
}

func TestCursorSurvivesRestart(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := newFakeSource(ticketItem("TKT-000001", base))

	w, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)
	items, err := w.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Commit(context.Background(), items))

	// New watcher over the same cursor repository models a restart.
	w2, err := NewWatcher(source, cursorRepo, nil)
	require.NoError(t, err)
	items, err = w2.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCommitEmptyBatchIsNoop(t *testing.T) {
	_, cursorRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	w, err := NewWatcher(newFakeSource(), cursorRepo, nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit(context.Background(), nil))

	cursor, err := cursorRepo.LoadCursor(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cursor)
}
