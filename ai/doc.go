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


// Package ai defines the interfaces for text embedding and answer
// synthesis, plus the shared configuration for AI service providers.
//
// Two implementations exist: ai/openai talks to any OpenAI-compatible
// API (OpenAI, Ollama, LocalAI, vLLM), and ai/mock provides
// deterministic in-process implementations for testing.
package ai
