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


// Package ingest implements continuous ticket ingestion. A Source
// delivers tickets, a Watcher filters them against a persisted cursor
// so each ticket is ingested exactly once across restarts, and the
// Pipeline embeds, persists and indexes each new batch before the
// cursor moves forward.
package ingest
