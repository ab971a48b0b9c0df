package reindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTrackerReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 100, 50)
	p.Start()

	p.Update(10)
	assert.Empty(t, buf.String())

	p.Update(50)
	assert.Contains(t, buf.String(), "50/100")

	p.Finish()
	assert.Contains(t, buf.String(), "100/100 (100.0%)")
}

func TestProgressTrackerIncrement(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 5)
	p.Start()

	p.Increment(3)
	assert.Empty(t, buf.String())
	p.Increment(3)
	assert.Contains(t, buf.String(), "6/10")

	// Increments cap at the total.
	p.Increment(100)
	assert.Contains(t, buf.String(), "10/10")
}

func TestProgressTrackerReportsOnCompletion(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 5)
	p.Start()

	// Completion is reported even when fewer than reportInterval
	// records arrived since the last report.
	p.Update(6)
	assert.Contains(t, buf.String(), "6/10")
	p.Update(10)
	assert.Contains(t, buf.String(), "10/10")

	// No duplicate report once the total has been announced.
	buf.Reset()
	p.Increment(1)
	assert.Empty(t, buf.String())
}

func TestProgressTrackerIgnoredBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 10, 1)

	p.Update(5)
	p.Increment(5)
	p.Finish()
	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())
}
