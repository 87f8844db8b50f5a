package nlp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	rateLimiterBurst        = 5
	maxInputRunes           = 12000
	maxTags                 = 10

	tagPromptTemplate = "Extract up to %d short keyword tags describing the main AI/ML topics of the " +
		"following text. Reply with the tags only, comma-separated, no numbering:\n\n%s"
	summaryPromptTemplate = "Summarize the following article in 2-3 sentences. Reply with the summary only:\n\n%s"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// ErrEmptyCompletion indicates the model returned no usable text.
var ErrEmptyCompletion = errors.New("empty completion")

type openaiClient struct {
	client      *openai.Client
	model       string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI builds the OpenAI-backed NLP client.
func NewOpenAI(apiKey, model string, rps int, logger *zerolog.Logger) Client {
	return &openaiClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
	}
}

// ExtractTags implements Client.
func (c *openaiClient) ExtractTags(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(tagPromptTemplate, maxTags, truncate(text))

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract tags: %w", err)
	}

	return parseTags(raw), nil
}

// Summarize implements Client.
func (c *openaiClient) Summarize(ctx context.Context, text string) (string, error) {
	raw, err := c.complete(ctx, fmt.Sprintf(summaryPromptTemplate, truncate(text)))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return strings.TrimSpace(raw), nil
}

func (c *openaiClient) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++

	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.consecutiveFailures = 0

		c.logger.Warn().Time("open_until", c.circuitOpenUntil).Msg("NLP circuit breaker opened")
	}
}

// parseTags splits a comma-separated model reply into clean tags. Semicolons
// are stripped from terms so tags stay safe for delimiter encoding.
func parseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, p := range parts {
		tag := strings.TrimSpace(strings.Trim(strings.TrimSpace(p), ".\"'"))
		tag = strings.ReplaceAll(tag, ";", "")

		if tag == "" {
			continue
		}

		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		tags = append(tags, tag)

		if len(tags) == maxTags {
			break
		}
	}

	return tags
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputRunes {
		return text
	}

	return string(runes[:maxInputRunes])
}
