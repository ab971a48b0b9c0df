package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, IDFromContent("TKT-000042"), IDFromContent("TKT-000042"))
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		assert.NotEqual(t, IDFromContent("TKT-000042"), IDFromContent("TKT-000043"))
	})

	t.Run("empty content has an id", func(t *testing.T) {
		// The watcher rejects empty source ids before hashing; the hash
		// itself is still well defined.
		assert.Equal(t, IDFromContent(""), IDFromContent(""))
	})
}

func TestCursorAdmits(t *testing.T) {
	boundary := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cursor := &Cursor{
		LastTimestamp: boundary,
		SeenIDs:       []string{"TKT-000001", "TKT-000002"},
	}

	tests := []struct {
		name     string
		ts       time.Time
		sourceID string
		want     bool
	}{
		{"newer timestamp", boundary.Add(time.Second), "TKT-000003", true},
		{"older timestamp", boundary.Add(-time.Second), "TKT-000003", false},
		{"boundary timestamp new id", boundary, "TKT-000003", true},
		{"boundary timestamp seen id", boundary, "TKT-000001", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cursor.Admits(tt.ts, tt.sourceID))
		})
	}
}

func TestCursorAdmitsNil(t *testing.T) {
	var cursor *Cursor
	assert.True(t, cursor.Admits(time.Now(), "TKT-000001"))
}

func TestCursorAdvance(t *testing.T) {
	boundary := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cursor := &Cursor{}
	cursor.Advance(boundary, "TKT-000001")
	cursor.Advance(boundary, "TKT-000002")

	assert.True(t, cursor.LastTimestamp.Equal(boundary))
	assert.Equal(t, []string{"TKT-000001", "TKT-000002"}, cursor.SeenIDs)
	assert.False(t, cursor.Admits(boundary, "TKT-000002"))

	// A newer timestamp resets the boundary set.
	later := boundary.Add(time.Minute)
	cursor.Advance(later, "TKT-000003")

	assert.True(t, cursor.LastTimestamp.Equal(later))
	assert.Equal(t, []string{"TKT-000003"}, cursor.SeenIDs)
	assert.True(t, cursor.Admits(later, "TKT-000002"))
}
