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


package openai

import (
	"fmt"
	"strings"

	"github.com/relaydesk/ticketrag/ai"
)

const synthesisSystemPrompt = `You are a helpful enterprise support assistant.`

const synthesisPromptTemplate = `You are a support assistant answering questions using historical support tickets.

Use ONLY the provided ticket excerpts to answer the question. If the excerpts
do not contain enough information, say so plainly instead of guessing.
Cite the ticket IDs you relied on.

Ticket excerpts:
%s
Question: %s

Answer:`

// buildSynthesisPrompt assembles the user prompt from the query and the
// retrieved ticket excerpts. Each excerpt is numbered and labeled with
// its ticket ID so the model can cite sources.
func buildSynthesisPrompt(query string, contextRecords []ai.ContextRecord) string {
	var sb strings.Builder
	for i, rec := range contextRecords {
		fmt.Fprintf(&sb, "Source %d (Ticket ID: %s): %s\n", i+1, rec.ID, rec.Text)
	}
	return fmt.Sprintf(synthesisPromptTemplate, sb.String(), query)
}
