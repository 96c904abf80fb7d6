package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
)

const (
	DefaultResponseTemperature = 0.7
	DefaultResponseMaxTokens   = 50
)

const responseStyleRules = `Rules for your reply:
- no punctuation at all
- lowercase is fine, write like a real chat user
- react naturally to the message as your character would
- at most about ten words
- never introduce yourself or explain who you are
- reply with the message text only`

var responsePunctuation = strings.NewReplacer(
	".", "",
	",", "",
	"!", "",
	"?", "",
	";", "",
	":", "",
	"'", "",
	`"`, "",
)

type ResponseGenerator struct {
	completer   ports.Completer
	temperature float64
	maxTokens   int
}

type ResponseGeneratorOption func(*ResponseGenerator)

func WithTemperature(temperature float64) ResponseGeneratorOption {
	return func(g *ResponseGenerator) {
		g.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) ResponseGeneratorOption {
	return func(g *ResponseGenerator) {
		if maxTokens > 0 {
			g.maxTokens = maxTokens
		}
	}
}

func NewResponseGenerator(completer ports.Completer, opts ...ResponseGeneratorOption) *ResponseGenerator {
	g := &ResponseGenerator{
		completer:   completer,
		temperature: DefaultResponseTemperature,
		maxTokens:   DefaultResponseMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the completer for a short in-character reaction to sourceText.
func (g *ResponseGenerator) Generate(ctx context.Context, persona domain.Persona, sourceText string) (string, error) {
	systemPrompt, err := buildResponsePrompt(persona)
	if err != nil {
		return "", &domain.ResponseGenerationError{Persona: persona.Username, Err: err}
	}

	raw, err := g.completer.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.Message{
			{Role: ports.RoleSystem, Content: systemPrompt},
			{Role: ports.RoleUser, Content: sourceText},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", &domain.ResponseGenerationError{Persona: persona.Username, Err: err}
	}

	return CleanResponse(raw), nil
}

func buildResponsePrompt(persona domain.Persona) (string, error) {
	descriptor := persona.Descriptor
	if descriptor == nil {
		descriptor = map[string]any{"username": persona.Username}
	}

	encoded, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode persona descriptor: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a member of a crypto chat. Stay fully in character as described below.\n\n")
	b.WriteString("Character:\n")
	b.Write(encoded)
	b.WriteString("\n\n")
	b.WriteString(responseStyleRules)
	return b.String(), nil
}

// CleanResponse strips punctuation and surrounding quotes from a raw completion.
func CleanResponse(raw string) string {
	cleaned := responsePunctuation.Replace(raw)
	cleaned = strings.TrimPrefix(cleaned, `"`)
	cleaned = strings.TrimSuffix(cleaned, `"`)
	return strings.TrimSpace(cleaned)
}
