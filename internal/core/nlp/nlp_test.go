package nlp

import (
	"context"
	"strings"
	"testing"
)

func TestParseTags(t *testing.T) {
	got := parseTags("AI, machine learning , AI, \"transformers\", ;weird;")

	want := []string{"AI", "machine learning", "transformers", "weird"}
	if len(got) != len(want) {
		t.Fatalf("parseTags = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseTags = %v, want %v", got, want)
		}
	}
}

func TestParseTagsStripsDelimiter(t *testing.T) {
	for _, tag := range parseTags("a;b, c") {
		if strings.Contains(tag, ";") {
			t.Fatalf("tag %q contains delimiter", tag)
		}
	}
}

func TestParseTagsCapped(t *testing.T) {
	raw := strings.Repeat("tag,", 30)
	if got := parseTags(raw); len(got) != 1 {
		// All elements are the identical word; dedupe collapses them.
		t.Fatalf("parseTags length = %d, want 1", len(got))
	}
}

func TestMockExtractTags(t *testing.T) {
	tags, err := NewMock().ExtractTags(context.Background(), "transformers transformers attention attention attention scaling")
	if err != nil {
		t.Fatal(err)
	}

	if len(tags) == 0 || tags[0] != "attention" {
		t.Fatalf("mock tags = %v, want attention first", tags)
	}
}

func TestMockSummarizeShortTextUnchanged(t *testing.T) {
	got, err := NewMock().Summarize(context.Background(), "short text")
	if err != nil {
		t.Fatal(err)
	}

	if got != "short text" {
		t.Fatalf("Summarize = %q", got)
	}
}
