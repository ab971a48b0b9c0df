package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *Record {
	return &Record{
		Id:        IDFromContent("TKT-000042"),
		SourceID:  "TKT-000042",
		Text:      "Issue with payment - Urgency: high \n User reported a failed charge.",
		Timestamp: time.Now().Add(-time.Minute),
		Metadata:  map[string]string{"customer_id": "CUST-0007"},
	}
}

func TestValidateRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		require.NoError(t, ValidateRecord(validRecord()))
	})

	t.Run("nil record", func(t *testing.T) {
		err := ValidateRecord(nil)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("missing source id", func(t *testing.T) {
		record := validRecord()
		record.SourceID = ""
		err := ValidateRecord(record)
		assert.ErrorIs(t, err, ErrInvalidRecord)
		assert.ErrorIs(t, err, ErrEmptySourceID)
	})

	t.Run("empty text", func(t *testing.T) {
		record := validRecord()
		record.Text = ""
		err := ValidateRecord(record)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("whitespace-only text", func(t *testing.T) {
		record := validRecord()
		record.Text = " \n\t "
		err := ValidateRecord(record)
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("future timestamp", func(t *testing.T) {
		record := validRecord()
		record.Timestamp = time.Now().Add(time.Hour)
		err := ValidateRecord(record)
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})

	t.Run("missing vector is allowed", func(t *testing.T) {
		record := validRecord()
		record.Vector = nil
		assert.NoError(t, ValidateRecord(record))
	})
}

func TestValidateVector(t *testing.T) {
	assert.NoError(t, ValidateVector(make([]float32, 384), 384))

	err := ValidateVector(make([]float32, 128), 384)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = ValidateVector(nil, 384)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
