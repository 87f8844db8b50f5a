package nlp

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// mockClient implements Client without calling any external model. It is used
// in tests and in deployments running without an API key.
type mockClient struct{}

// NewMock creates the mock NLP client.
func NewMock() Client {
	return &mockClient{}
}

const (
	mockMaxTags      = 5
	mockMinWordLen   = 5
	mockSummaryWords = 40
)

// ExtractTags returns the most frequent long words of the text as tags.
func (c *mockClient) ExtractTags(_ context.Context, text string) ([]string, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	counts := make(map[string]int)
	order := make([]string, 0)

	for _, w := range words {
		if len(w) < mockMinWordLen {
			continue
		}

		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}

		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > mockMaxTags {
		order = order[:mockMaxTags]
	}

	return order, nil
}

// Summarize returns the leading words of the text.
func (c *mockClient) Summarize(_ context.Context, text string) (string, error) {
	words := strings.Fields(text)
	if len(words) <= mockSummaryWords {
		return strings.TrimSpace(text), nil
	}

	return strings.Join(words[:mockSummaryWords], " ") + "…", nil
}
