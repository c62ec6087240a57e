package llm

import "context"

// LLMClient is the text-in/text-out contract with a language-model service.
// Generate blocks until the full reply is available.
type LLMClient interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
