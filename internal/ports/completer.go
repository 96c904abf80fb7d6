package ports

import "context"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is a single-shot, non-streaming LLM completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
