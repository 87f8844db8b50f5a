// Package nlp wraps the external language-model boundary used during
// ingestion: keyword extraction (text to delimiter-joined tags) and
// summarization (text to shorter text). The rest of the system treats both
// as opaque functions and only consumes their output.
package nlp

import "context"

// Client is the NLP boundary consumed by ingestion.
type Client interface {
	// ExtractTags returns keyword tags for the text. The result is an
	// already-deduplicated list of terms, never containing the preference
	// delimiter inside a term.
	ExtractTags(ctx context.Context, text string) ([]string, error)

	// Summarize returns a shorter version of the text.
	Summarize(ctx context.Context, text string) (string, error)
}

// ProviderName identifies an NLP provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI ProviderName = "openai"
	ProviderMock   ProviderName = "mock"
)
