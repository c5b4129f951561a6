package agent

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/brokerit/core"
)

func msg(content string, fromAgent bool) *core.Message {
	return &core.Message{Content: content, IsFromAgent: fromAgent}
}

func match(title, content string) *core.DocumentMatch {
	return &core.DocumentMatch{Document: &core.KnowledgeDocument{Title: title, Content: content}}
}

func TestBuildContextFormat(t *testing.T) {
	messages := []*core.Message{
		msg("Is the villa available?", false),
		msg("Yes, it is. Would you like a viewing?", true),
	}
	documents := []*core.DocumentMatch{
		match("Lakeside Villa", "Three bedrooms, lake access."),
	}

	context := BuildContext(messages, documents)

	want := "Recent conversation:\n" +
		"Client: Is the villa available?\n" +
		"Agent: Yes, it is. Would you like a viewing?\n" +
		"\n" +
		"Relevant property information:\n" +
		"Document 1 (Lakeside Villa):\n" +
		"Three bedrooms, lake access....\n\n"

	if context != want {
		t.Errorf("Context mismatch.\nGot:\n%s\nWant:\n%s", context, want)
	}
}

func TestBuildContextIsPure(t *testing.T) {
	messages := []*core.Message{msg("hello", false)}
	documents := []*core.DocumentMatch{match("Doc", "content")}

	first := BuildContext(messages, documents)
	second := BuildContext(messages, documents)
	if first != second {
		t.Error("Expected identical output for identical input")
	}
}

func TestBuildContextTurnCap(t *testing.T) {
	var messages []*core.Message
	for _, content := range []string{"one", "two", "three", "four", "five", "six", "seven", "eight"} {
		messages = append(messages, msg(content, false))
	}

	context := BuildContext(messages, nil)

	if strings.Contains(context, "Client: one\n") || strings.Contains(context, "Client: two\n") {
		t.Error("Expected oldest turns beyond the cap to be dropped")
	}
	// Last six render, oldest first
	idxThree := strings.Index(context, "Client: three\n")
	idxEight := strings.Index(context, "Client: eight\n")
	if idxThree == -1 || idxEight == -1 || idxThree > idxEight {
		t.Errorf("Expected chronological rendering of the last six turns, got:\n%s", context)
	}
}

func TestBuildContextExcerptTruncation(t *testing.T) {
	long := strings.Repeat("x", 2000)
	context := BuildContext(nil, []*core.DocumentMatch{match("Long", long)})

	if strings.Contains(context, strings.Repeat("x", 501)) {
		t.Error("Expected excerpt truncated to 500 characters")
	}
	if !strings.Contains(context, strings.Repeat("x", 500)+"...") {
		t.Error("Expected truncated excerpt followed by ellipsis")
	}
}

func TestBuildContextExcerptKeepsRunesIntact(t *testing.T) {
	// "ç" is two bytes; an odd leading byte puts the cut point mid-rune
	long := "x" + strings.Repeat("ç", 1000)
	context := BuildContext(nil, []*core.DocumentMatch{match("Accents", long)})

	if !utf8.ValidString(context) {
		t.Fatal("Expected truncation on a rune boundary")
	}
	if strings.Contains(context, string(utf8.RuneError)) {
		t.Error("Expected no replacement characters in the excerpt")
	}
}

func TestBuildContextNoDocuments(t *testing.T) {
	// Zero retrieved documents still yields valid context
	context := BuildContext([]*core.Message{msg("any houses near the lake?", false)}, nil)

	if !strings.Contains(context, "Recent conversation:\n") {
		t.Error("Expected conversation section")
	}
	if strings.Contains(context, "Relevant property information:") {
		t.Error("Expected no document section for empty retrieval")
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if context := BuildContext(nil, nil); context != "" {
		t.Errorf("Expected empty context, got %q", context)
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		count int
		want  float32
	}{
		{0, 0.3},
		{1, 0.6},
		{2, 0.6},
		{3, 0.9},
		{10, 0.9},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.count); got != tt.want {
			t.Errorf("ConfidenceFor(%d) = %f, want %f", tt.count, got, tt.want)
		}
	}
}
