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


package ai

import "errors"

var (
	// ErrEmptyText indicates that empty or whitespace-only text was
	// passed to an embedder. Rejecting it keeps zero vectors out of the
	// similarity math.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrEmbeddingCountMismatch indicates a batch embedding returned a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrSynthesisFailed indicates the answer synthesizer failed. The
	// cause is wrapped; the query is not retried.
	ErrSynthesisFailed = errors.New("answer synthesis failed")

	// ErrNoAnswer indicates the model returned no completion choices.
	ErrNoAnswer = errors.New("model returned no answer")
)
