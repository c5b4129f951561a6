package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "Beautiful 3-bedroom house in a quiet neighborhood with a renovated kitchen and large backyard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestKnowledgeDocument_Processed(t *testing.T) {
	doc := &KnowledgeDocument{Title: "Listing sheet", Content: "some text"}
	if doc.Processed() {
		t.Error("document without vector reported as processed")
	}

	doc.Vector = []float32{0.1, 0.2, 0.3}
	if !doc.Processed() {
		t.Error("document with vector reported as unprocessed")
	}
}
