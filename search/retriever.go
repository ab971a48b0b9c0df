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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/core"
	"github.com/relaydesk/ticketrag/index"
)

// Retriever performs cosine similarity search over the in-memory index.
// A query is embedded, normalized and scored against every indexed
// record in the current snapshot.
type Retriever struct {
	store    *index.Store
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMinScore drops results scoring below the threshold.
// The default of -1 admits every match; cosine scores can be negative.
func WithMinScore(minScore float32) Option {
	return func(r *Retriever) error {
		r.minScore = minScore
		return nil
	}
}

// NewRetriever creates a new retriever over the given index store.
func NewRetriever(store *index.Store, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		store:    store,
		embedder: embedder,
		minScore: defaultMinScore,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// defaultMinScore admits every match, including negatively correlated ones.
const defaultMinScore float32 = -1.0

// Retrieve returns up to maxHits records most similar to the query,
// ranked by cosine similarity (descending). Ties rank the earlier
// indexed record first. An empty index yields an empty result, not an
// error.
func (r *Retriever) Retrieve(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return r.RetrieveWithMonitor(ctx, query, maxHits, nil)
}

// RetrieveWithMonitor is Retrieve with stage callbacks for observability.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, maxHits int, monitor RetrievalMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, maxHits)
	}

	monitor.Start(query)

	// Acquire the snapshot once; every score in this search is computed
	// against the same index state.
	snap := r.store.Snapshot()
	if snap.Len() == 0 {
		r.logger.Debug("index is empty, returning no results", "query", query)
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if len(embedding) != snap.Dim() {
		return nil, fmt.Errorf("query embedding: %w: got %d, want %d",
			core.ErrDimensionMismatch, len(embedding), snap.Dim())
	}

	queryVector := index.Normalize(embedding)
	monitor.AfterQueryEmbedding(queryVector)

	if index.IsZero(queryVector) {
		r.logger.Warn("query embedded to a zero vector, no similarity defined", "query", query)
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	// Indexed vectors are unit-normalized at ingestion, so the dot
	// product is the cosine similarity.
	type scored struct {
		pos   int
		score float32
	}
	candidates := make([]scored, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		score := index.Dot(queryVector, snap.Vector(i))
		if score < r.minScore {
			continue
		}
		candidates = append(candidates, scored{pos: i, score: score})
	}
	monitor.AfterScoring(len(candidates))

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].pos < candidates[b].pos
	})

	if len(candidates) > maxHits {
		candidates = candidates[:maxHits]
	}

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, &core.SearchResult{
			Record: snap.Record(c.pos),
			Score:  c.score,
		})
	}

	r.logger.Debug("retrieval complete", "query", query, "hits", len(results), "indexed", snap.Len())
	monitor.Finish(results)
	return results, nil
}
