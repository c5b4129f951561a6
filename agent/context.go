// Copyright 2025 Poiesic Systems
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


package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/brokerit/core"
)

const (
	// maxContextTurns bounds how many conversation turns are rendered.
	maxContextTurns = 6

	// documentExcerptChars bounds each rendered document excerpt.
	documentExcerptChars = 500
)

// BuildContext merges recent conversation turns and retrieved documents into
// a single prompt context block. Pure function: no side effects, same inputs
// always yield the same output.
//
// Turns are rendered oldest-to-newest, capped to the most recent
// maxContextTurns. Documents are rendered in retrieval order (most relevant
// first) with excerpts truncated to documentExcerptChars.
func BuildContext(messages []*core.Message, documents []*core.DocumentMatch) string {
	var b strings.Builder

	if len(messages) > 0 {
		if len(messages) > maxContextTurns {
			messages = messages[len(messages)-maxContextTurns:]
		}
		b.WriteString("Recent conversation:\n")
		for _, msg := range messages {
			role := "Client"
			if msg.IsFromAgent {
				role = "Agent"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
		}
		b.WriteString("\n")
	}

	if len(documents) > 0 {
		b.WriteString("Relevant property information:\n")
		for i, match := range documents {
			fmt.Fprintf(&b, "Document %d (%s):\n", i+1, match.Document.Title)
			fmt.Fprintf(&b, "%s...\n\n", truncateExcerpt(match.Document.Content))
		}
	}

	return b.String()
}

// truncateExcerpt caps content at documentExcerptChars bytes without
// splitting a multi-byte rune.
func truncateExcerpt(content string) string {
	if len(content) <= documentExcerptChars {
		return content
	}
	cut := documentExcerptChars
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
