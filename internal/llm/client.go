package llm

import (
	"context"
)

// LLMClient is the single capability the arbitration judge depends on.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
