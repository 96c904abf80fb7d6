package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"github.com/bnema/crowdcast/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "wen moon", want: "wen moon"},
		{name: "punctuation", raw: "wow, this is big!!! right?", want: "wow this is big right"},
		{name: "quoted", raw: `"lfg; send it."`, want: "lfg send it"},
		{name: "apostrophes", raw: "don't fade it: it's early", want: "dont fade it its early"},
		{name: "whitespace", raw: "   gm frens \n", want: "gm frens"},
		{name: "only punctuation", raw: `.,!?;:'"`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanResponse(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.ContainsAny(got, `.,!?;:'"`))
		})
	}
}

func TestResponseGeneratorGenerate(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	generator := NewResponseGenerator(completer)

	persona := domain.Persona{
		Username:   "degen_dave",
		Descriptor: map[string]any{"username": "degen_dave", "bio": "always early"},
	}

	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req ports.CompletionRequest) bool {
		if len(req.Messages) != 2 {
			return false
		}
		system, user := req.Messages[0], req.Messages[1]
		return system.Role == ports.RoleSystem &&
			strings.Contains(system.Content, `"bio": "always early"`) &&
			user.Role == ports.RoleUser &&
			user.Content == "BTC just broke 100k" &&
			req.Temperature == DefaultResponseTemperature &&
			req.MaxTokens == DefaultResponseMaxTokens
	})).Return(`"huge news, finally!"`, nil).Once()

	got, err := generator.Generate(context.Background(), persona, "BTC just broke 100k")
	require.NoError(t, err)
	assert.Equal(t, "huge news finally", got)
}

func TestResponseGeneratorOptions(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	generator := NewResponseGenerator(completer, WithTemperature(0.2), WithMaxTokens(80))

	completer.On("Complete", mock.Anything, mock.MatchedBy(func(req ports.CompletionRequest) bool {
		return req.Temperature == 0.2 && req.MaxTokens == 80
	})).Return("ok", nil).Once()

	_, err := generator.Generate(context.Background(), domain.Persona{Username: "p"}, "hello")
	require.NoError(t, err)
}

func TestResponseGeneratorWrapsCompleterError(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	generator := NewResponseGenerator(completer)

	upstream := errors.New("rate limited")
	completer.On("Complete", mock.Anything, mock.Anything).Return("", upstream).Once()

	_, err := generator.Generate(context.Background(), domain.Persona{Username: "whale"}, "hello")
	require.Error(t, err)

	var genErr *domain.ResponseGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "whale", genErr.Persona)
	assert.ErrorIs(t, err, upstream)
}
