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


package ticketrag

import (
	"context"
	"log/slog"

	"github.com/relaydesk/ticketrag/ai"
	"github.com/relaydesk/ticketrag/ai/openai"
	"github.com/relaydesk/ticketrag/answer"
	"github.com/relaydesk/ticketrag/index"
	"github.com/relaydesk/ticketrag/ingest"
	"github.com/relaydesk/ticketrag/search"
	"github.com/relaydesk/ticketrag/storage"
	"github.com/relaydesk/ticketrag/storage/badger"
)

// DefaultDimension is the embedding dimension assumed when none is
// configured. Must match the configured embedding model.
const DefaultDimension = 768

// Engine bundles the storage backend, the in-memory vector index and
// the AI provider behind one lifecycle. On startup the index is
// rebuilt from storage, so queries see every previously ingested
// ticket immediately.
type Engine struct {
	backend    *badger.Backend
	recordRepo storage.RecordRepository
	cursorRepo storage.CursorRepository
	store      *index.Store
	provider   ai.Provider
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	dimension int
	inMemory  bool
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Used by tests with mock providers.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithDimension sets the embedding dimension of the index.
// Default is DefaultDimension.
func WithDimension(dim int) EngineOption {
	return func(o *engineOptions) {
		o.dimension = dim
	}
}

// WithInMemoryStorage keeps all data in memory instead of on disk.
// Used by tests.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// NewEngine opens the storage at filePath, builds the index from the
// stored records and wires the AI provider.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:  ai.DefaultConfig(),
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	recordRepo, err := badger.NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	cursorRepo := badger.NewCursorRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			recordRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	store, err := index.NewStore(options.dimension)
	if err != nil {
		provider.Close()
		recordRepo.Close()
		backend.Close()
		return nil, err
	}

	if err := store.Reload(context.Background(), recordRepo); err != nil {
		provider.Close()
		recordRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:    backend,
		recordRepo: recordRepo,
		cursorRepo: cursorRepo,
		store:      store,
		provider:   provider,
		logger:     slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.recordRepo.Close(); err != nil {
		e.logger.Error("error closing record repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) RecordRepository() storage.RecordRepository {
	return e.recordRepo
}

func (e *Engine) CursorRepository() storage.CursorRepository {
	return e.cursorRepo
}

func (e *Engine) Store() *index.Store {
	return e.store
}

func (e *Engine) Provider() ai.Provider {
	return e.provider
}

// NewPipeline creates an ingestion pipeline feeding this engine's
// storage and index from the given source.
func (e *Engine) NewPipeline(source ingest.Source, opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(source, e.recordRepo, e.cursorRepo, e.store, e.provider.Embedder(), opts...)
}

// NewRetriever creates a similarity retriever over this engine's index.
func (e *Engine) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	return search.NewRetriever(e.store, e.provider.Embedder(), opts...)
}

// NewAnswerer creates a question answerer over this engine's index and
// synthesizer.
func (e *Engine) NewAnswerer(opts ...answer.Option) (*answer.Answerer, error) {
	retriever, err := e.NewRetriever()
	if err != nil {
		return nil, err
	}
	return answer.NewAnswerer(retriever, e.provider.Synthesizer(), opts...)
}
