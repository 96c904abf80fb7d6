package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptyCompletion = errors.New("gemini returned no text")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models         contentGenerator
	model          string
	thinkingBudget int32
	logger         *zap.Logger
}

var _ ports.Completer = (*Client)(nil)

// NewClient builds a Gemini completer. thinkingBudget caps the thinking tokens
// of 2.5 models, which otherwise count against MaxOutputTokens; 0 disables thinking.
func NewClient(ctx context.Context, apiKey, model string, thinkingBudget int32, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newClient(cli.Models, model, thinkingBudget, logger), nil
}

func newClient(models contentGenerator, model string, thinkingBudget int32, logger *zap.Logger) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{models: models, model: model, thinkingBudget: thinkingBudget, logger: logger.Named("gemini")}
}

// Complete maps system messages to the system instruction and the rest to user turns.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, message := range req.Messages {
		if message.Role == ports.RoleSystem {
			system = append(system, message.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleUser))
	}

	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:    &temperature,
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.thinkingBudget)},
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyCompletion
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}

	if b.Len() == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("completion response", zap.String("model", c.model), zap.Int("chars", b.Len()))
	return b.String(), nil
}
