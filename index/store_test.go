package index

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(n int, vector []float32) *core.Record {
	sourceID := fmt.Sprintf("TKT-%06d", n)
	return &core.Record{
		Id:        core.IDFromContent(sourceID),
		SourceID:  sourceID,
		Text:      fmt.Sprintf("ticket %d", n),
		Timestamp: time.Date(2026, 3, 14, 9, 0, n, 0, time.UTC),
		Vector:    vector,
	}
}

func TestNewStore_InvalidDimension(t *testing.T) {
	_, err := NewStore(0)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = NewStore(-3)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestStore_AppendAndSnapshot(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	before := store.Snapshot()
	assert.Equal(t, 0, before.Len())

	added, err := store.Append(ctx, record(1, []float32{1, 0, 0}), record(2, []float32{0, 2, 0}))
	require.NoError(t, err)
	assert.Len(t, added, 2)

	// The old snapshot is unaffected by the append.
	assert.Equal(t, 0, before.Len())

	snap := store.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "TKT-000001", snap.Record(0).SourceID)
	assert.Equal(t, "TKT-000002", snap.Record(1).SourceID)

	// Vectors are unit-normalized at index time.
	assert.InDelta(t, 1.0, float64(Dot(snap.Vector(1), snap.Vector(1))), 1e-6)
}

func TestStore_AppendDimensionMismatch(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Append(ctx, record(1, []float32{1, 0, 0}), record(2, []float32{1, 0}))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	// The whole batch is rejected, including the valid record.
	assert.Equal(t, 0, store.Snapshot().Len())
}

func TestStore_AppendMissingVector(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)

	_, err = store.Append(context.Background(), record(1, nil))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestStore_AppendDedupeKeepsFirst(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	first := record(1, []float32{1, 0, 0})
	_, err = store.Append(ctx, first)
	require.NoError(t, err)

	// Re-appending the same id is idempotent, even with a different vector.
	duplicate := record(1, []float32{0, 1, 0})
	added, err := store.Append(ctx, duplicate)
	require.NoError(t, err)
	assert.Empty(t, added)

	snap := store.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, []float32{1, 0, 0}, snap.Vector(0))
}

func TestStore_AppendNothingKeepsSnapshot(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Append(ctx, record(1, []float32{1, 0, 0}))
	require.NoError(t, err)

	before := store.Snapshot()

	added, err := store.Append(ctx)
	require.NoError(t, err)
	assert.Empty(t, added)

	// Appending zero records does not even swap the pointer.
	assert.Same(t, before, store.Snapshot())
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Append(ctx, record(1, []float32{1, 0, 0}))
	require.NoError(t, err)

	held := store.Snapshot()

	_, err = store.Append(ctx, record(2, []float32{0, 1, 0}))
	require.NoError(t, err)

	// The held snapshot still sees exactly one record.
	assert.Equal(t, 1, held.Len())
	assert.Equal(t, 2, store.Snapshot().Len())
}

func TestStore_ConcurrentAppendAndRead(t *testing.T) {
	store, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, err := store.Append(ctx, record(i, []float32{float32(i + 1), 1, 0}))
			assert.NoError(t, err)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := store.Snapshot()
				// A snapshot is always internally consistent.
				for j := 0; j < snap.Len(); j++ {
					require.NotNil(t, snap.Record(j))
					require.Len(t, snap.Vector(j), 3)
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, store.Snapshot().Len())
}

func TestStore_Reload(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	_, err = repo.AddRecords(ctx,
		record(1, []float32{1, 0, 0}),
		record(2, []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	store, err := NewStore(3)
	require.NoError(t, err)

	require.NoError(t, store.Reload(ctx, repo))

	snap := store.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "TKT-000001", snap.Record(0).SourceID)
	assert.Equal(t, "TKT-000002", snap.Record(1).SourceID)
}

func TestStore_ReloadDimensionMismatchFailsClosed(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	// The durable rows carry 2-dimensional vectors; the store wants 3.
	_, err = repo.AddRecords(ctx, record(9, []float32{1, 0}))
	require.NoError(t, err)

	store, err := NewStore(3)
	require.NoError(t, err)
	_, err = store.Append(ctx, record(1, []float32{1, 0, 0}))
	require.NoError(t, err)

	err = store.Reload(ctx, repo)
	assert.ErrorIs(t, err, ErrReloadFailed)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	// Old snapshot preserved.
	snap := store.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "TKT-000001", snap.Record(0).SourceID)
}

func TestStore_ReloadAllowsReAppendOfNewIds(t *testing.T) {
	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	_, err = repo.AddRecords(ctx, record(1, []float32{1, 0, 0}))
	require.NoError(t, err)

	store, err := NewStore(3)
	require.NoError(t, err)
	_, err = store.Append(ctx,
		record(1, []float32{1, 0, 0}),
		record(2, []float32{0, 1, 0}),
	)
	require.NoError(t, err)

	// Reload drops record 2 (not durable); its id must be appendable again.
	require.NoError(t, store.Reload(ctx, repo))
	assert.Equal(t, 1, store.Snapshot().Len())

	added, err := store.Append(ctx, record(2, []float32{0, 1, 0}))
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Equal(t, 2, store.Snapshot().Len())
}

func TestNormalize(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := Normalize([]float32{3, 4})
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := Normalize([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		Normalize(in)
		assert.Equal(t, []float32{3, 4}, in)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 1.0, float64(Dot([]float32{1, 0}, []float32{1, 0})), 1e-6)
	assert.InDelta(t, -1.0, float64(Dot([]float32{1, 0}, []float32{-1, 0})), 1e-6)
	assert.InDelta(t, 0.0, float64(Dot([]float32{1, 0}, []float32{0, 1})), 1e-6)
}
