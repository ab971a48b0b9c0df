package mock

import (
	"context"
	"fmt"

	"github.com/relaydesk/ticketrag/ai"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default canned behavior.
	SynthesizeFunc func(ctx context.Context, query string, contextRecords []ai.ContextRecord) (string, error)

	// Response is returned by the default behavior when non-empty.
	Response string

	// Err is returned by the default behavior when non-nil.
	Err error

	callCount   int
	lastQuery   string
	lastContext []ai.ContextRecord
}

// NewMockSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns a canned answer naming the sources it was given.
func (m *MockSynthesizer) Synthesize(ctx context.Context, query string, contextRecords []ai.ContextRecord) (string, error) {
	m.callCount++
	m.lastQuery = query
	m.lastContext = contextRecords

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, query, contextRecords)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return fmt.Sprintf("mock answer for %q based on %d sources", query, len(contextRecords)), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// LastQuery returns the query from the most recent Synthesize call.
func (m *MockSynthesizer) LastQuery() string {
	return m.lastQuery
}

// LastContext returns the context records from the most recent Synthesize call.
func (m *MockSynthesizer) LastContext() []ai.ContextRecord {
	return m.lastContext
}

// Reset clears the call count and injected behavior.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.lastQuery = ""
	m.lastContext = nil
	m.SynthesizeFunc = nil
	m.Response = ""
	m.Err = nil
}
