package ai

import "context"

// Client generates free text from a prompt.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
