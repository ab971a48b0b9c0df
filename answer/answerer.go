// Copyright 2025 Relaydesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/search"
)

// DefaultTopK is the number of tickets retrieved as context for an answer.
const DefaultTopK = 5

// Answerer orchestrates the question-answering flow: retrieve the most
// similar tickets, then synthesize a grounded answer from them.
type Answerer struct {
	retriever   *search.Retriever
	synthesizer ai.Synthesizer
	topK        int
	logger      *slog.Logger
}

// Result is a synthesized answer together with the tickets it was
// grounded on.
type Result struct {
	// Answer is the synthesized natural-language answer.
	Answer string

	// Sources are the retrieved tickets that were handed to the
	// synthesizer, in rank order. Empty when no ticket matched.
	Sources []*core.SearchResult
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithTopK sets how many tickets are retrieved as synthesis context.
// Default is DefaultTopK.
func WithTopK(topK int) Option {
	return func(a *Answerer) error {
		if topK <= 0 {
			return fmt.Errorf("%w: %d", search.ErrInvalidLimit, topK)
		}
		a.topK = topK
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a new answerer.
func NewAnswerer(retriever *search.Retriever, synthesizer ai.Synthesizer, opts ...Option) (*Answerer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if synthesizer == nil {
		return nil, ErrSynthesizerRequired
	}

	a := &Answerer{
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        DefaultTopK,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Answer answers the query from the indexed tickets. When no ticket
// matches, it returns a fixed fallback answer without calling the
// synthesizer. Synthesis failures are returned to the caller; no
// retry is attempted here.
func (a *Answerer) Answer(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	sources, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		a.logger.Info("no relevant tickets for query", "query", query)
		return &Result{
			Answer:  fmt.Sprintf("No relevant tickets found for query: '%s'", query),
			Sources: []*core.SearchResult{},
		}, nil
	}

	contextRecords := make([]ai.ContextRecord, 0, len(sources))
	for _, src := range sources {
		contextRecords = append(contextRecords, ai.ContextRecord{
			ID:   src.Record.SourceID,
			Text: src.Record.Text,
		})
	}

	answer, err := a.synthesizer.Synthesize(ctx, query, contextRecords)
	if err != nil {
		a.logger.Error("answer synthesis failed", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrSynthesisFailed, err)
	}

	a.logger.Debug("answer synthesized", "query", query, "sources", len(sources))
	return &Result{Answer: answer, Sources: sources}, nil
}
