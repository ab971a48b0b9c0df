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


package ingest

import (
	"context"
	"time"
)

// Item is one ticket as delivered by a Source, before embedding and
// storage. Text carries the combined content that gets embedded.
type Item struct {
	// SourceID is the external ticket identifier, e.g. "TKT-000042".
	SourceID string

	// Text is the content to embed and store.
	Text string

	// Timestamp is when the ticket was created at the source.
	Timestamp time.Time

	// Metadata carries auxiliary fields (customer id, origin file).
	Metadata map[string]string
}

// Source delivers tickets from an external system. Implementations must
// tolerate repeated Fetch calls returning overlapping data: the watcher
// filters out already-ingested items by cursor position.
type Source interface {
	// Fetch returns all currently visible items. Items need not be
	// sorted or deduplicated; the watcher handles both.
	Fetch(ctx context.Context) ([]Item, error)

	// Changes returns a channel that receives a signal when new data
	// may be available. A nil channel means the source cannot push
	// notifications and must be polled.
	Changes() <-chan struct{}

	// Close releases resources held by the source.
	Close() error
}
