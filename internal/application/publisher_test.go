package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleDraft() domain.Draft {
	return domain.Draft{
		ID:         "d-1",
		ChatTarget: "https://chat.example/alpha",
		MainPoster: domain.Participant{ProfileID: "insider"},
		Insight:    domain.DraftInsight{ID: "7", Content: "ETH ETF approved", Images: []string{"chart.png"}},
		Responses: []domain.DraftResponse{
			{Participant: domain.Participant{ProfileID: "p1"}, Content: "wow", Delay: time.Second},
			{Participant: domain.Participant{ProfileID: "p2"}, Content: "huge", Delay: 2 * time.Second},
			{Participant: domain.Participant{ProfileID: "p3"}, Content: "lfg", Delay: 3 * time.Second},
		},
	}
}

func TestPublisherPublishIsolatesResponseFailures(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights(domain.Insight{ID: "7"})
	poster := mocks.NewMockPoster(t)
	history := mocks.NewMockMessageHistory(t)
	clock := &mocks.MockClock{}
	core, logs := observer.New(zap.DebugLevel)
	publisher := NewPublisher(drafts, insights, poster, history, clock, zap.New(core))

	target := "https://chat.example/alpha"
	poster.On("PublishMain", mock.Anything, domain.ProfileID("insider"), target, "ETH ETF approved", []string{"chart.png"}).Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, domain.ProfileID("p1"), target, "wow").Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, domain.ProfileID("p2"), target, "huge").Return(errors.New("selector not found")).Once()
	poster.On("PublishResponse", mock.Anything, domain.ProfileID("p3"), target, "lfg").Return(nil).Once()
	history.On("Append", mock.Anything, mock.Anything).Return(nil).Times(3)

	result, err := publisher.Publish(context.Background(), "d-1", PublishOptions{DeleteAfter: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Delivered())
	assert.Equal(t, 1, result.Failed())
	require.Len(t, result.Responses, 3)
	assert.Equal(t, domain.ProfileID("p2"), result.Responses[1].ProfileID)
	assert.EqualError(t, result.Responses[1].Err, "selector not found")
	assert.NoError(t, result.CleanupErr)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, clock.Slept)
	assert.Equal(t, []domain.DraftID{"d-1"}, drafts.deleted)
	assert.Equal(t, []domain.InsightID{"7"}, insights.deleted)

	failures := logs.FilterMessage("publish response failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "d-1", failures[0].ContextMap()["draft_id"])
	assert.Equal(t, "p2", failures[0].ContextMap()["profile_id"])
}

func TestPublisherPublishTwiceAfterDelete(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights()
	poster := mocks.NewMockPoster(t)
	publisher := NewPublisher(drafts, insights, poster, nil, &mocks.MockClock{}, nil)

	poster.On("PublishMain", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	_, err := publisher.Publish(context.Background(), "d-1", PublishOptions{DeleteAfter: true})
	require.NoError(t, err)

	_, err = publisher.Publish(context.Background(), "d-1", PublishOptions{DeleteAfter: true})
	require.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestPublisherPublishKeepDraft(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights(domain.Insight{ID: "7"})
	poster := mocks.NewMockPoster(t)
	publisher := NewPublisher(drafts, insights, poster, nil, &mocks.MockClock{}, nil)

	poster.On("PublishMain", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	_, err := publisher.Publish(context.Background(), "d-1", PublishOptions{})
	require.NoError(t, err)
	assert.Empty(t, drafts.deleted)
	assert.Empty(t, insights.deleted)
	assert.Contains(t, drafts.drafts, domain.DraftID("d-1"))
}

func TestPublisherPublishMainFailureIsFatal(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights(domain.Insight{ID: "7"})
	poster := mocks.NewMockPoster(t)
	clock := &mocks.MockClock{}
	publisher := NewPublisher(drafts, insights, poster, nil, clock, nil)

	mainErr := errors.New("chat closed")
	poster.On("PublishMain", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mainErr).Once()

	_, err := publisher.Publish(context.Background(), "d-1", PublishOptions{DeleteAfter: true})
	require.ErrorIs(t, err, mainErr)
	assert.Empty(t, clock.Slept)
	assert.Empty(t, drafts.deleted)
	assert.Empty(t, insights.deleted)
}

func TestPublisherPublishDryRun(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights(domain.Insight{ID: "7"})
	poster := mocks.NewMockPoster(t)
	clock := &mocks.MockClock{}
	core, logs := observer.New(zap.InfoLevel)
	publisher := NewPublisher(drafts, insights, poster, nil, clock, zap.New(core))

	result, err := publisher.Publish(context.Background(), "d-1", PublishOptions{DryRun: true, DeleteAfter: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Empty(t, clock.Slept)
	assert.Empty(t, drafts.deleted)
	assert.Equal(t, 1, logs.FilterMessage("dry run: main insight").Len())
	assert.Equal(t, 3, logs.FilterMessage("dry run: response").Len())
}

func TestPublisherPublishCanceledDuringWait(t *testing.T) {
	drafts := newFakeDrafts(sampleDraft())
	insights := newFakeInsights(domain.Insight{ID: "7"})
	poster := mocks.NewMockPoster(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poster.On("PublishMain", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, domain.ProfileID("p1"), mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil).Once()

	publisher := NewPublisher(drafts, insights, poster, nil, &mocks.MockClock{}, nil)

	result, err := publisher.Publish(ctx, "d-1", PublishOptions{DeleteAfter: true})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Delivered())
	assert.Contains(t, drafts.drafts, domain.DraftID("d-1"))
	assert.Empty(t, insights.deleted)
}

func TestPublisherPublishHistoryFailureIsIgnored(t *testing.T) {
	draft := sampleDraft()
	draft.Responses = draft.Responses[:1]
	drafts := newFakeDrafts(draft)
	poster := mocks.NewMockPoster(t)
	history := mocks.NewMockMessageHistory(t)
	publisher := NewPublisher(drafts, newFakeInsights(), poster, history, &mocks.MockClock{}, nil)

	poster.On("PublishMain", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	poster.On("PublishResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	history.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full")).Twice()

	result, err := publisher.Publish(context.Background(), "d-1", PublishOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered())
}
