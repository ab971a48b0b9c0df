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


// Package answer orchestrates question answering: top-K retrieval over
// the ticket index followed by LLM answer synthesis grounded in the
// retrieved tickets. When nothing relevant is indexed, a fixed fallback
// answer is returned and the synthesizer is never invoked.
package answer
