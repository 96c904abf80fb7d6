package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
	"go.uber.org/zap"
)

type PublishOptions struct {
	DeleteAfter bool
	DryRun      bool
}

type ResponseOutcome struct {
	ProfileID domain.ProfileID
	Delivered bool
	Err       error
}

type PublishResult struct {
	DraftID   domain.DraftID
	DryRun    bool
	Responses []ResponseOutcome
	// CleanupErr collects draft and insight deletion failures after a completed run.
	CleanupErr error
}

func (r PublishResult) Delivered() int {
	count := 0
	for _, outcome := range r.Responses {
		if outcome.Delivered {
			count++
		}
	}
	return count
}

func (r PublishResult) Failed() int {
	count := 0
	for _, outcome := range r.Responses {
		if outcome.Err != nil {
			count++
		}
	}
	return count
}

type Publisher struct {
	drafts   ports.DraftRepository
	insights ports.InsightRepository
	poster   ports.Poster
	history  ports.MessageHistory
	clock    ports.Clock
	logger   *zap.Logger
}

func NewPublisher(drafts ports.DraftRepository, insights ports.InsightRepository, poster ports.Poster, history ports.MessageHistory, clock ports.Clock, logger *zap.Logger) *Publisher {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Publisher{
		drafts:   drafts,
		insights: insights,
		poster:   poster,
		history:  history,
		clock:    clock,
		logger:   logger.Named("publisher"),
	}
}

func (p *Publisher) Publish(ctx context.Context, id domain.DraftID, opts PublishOptions) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}

	draft, err := p.drafts.GetByID(ctx, id)
	if err != nil {
		return PublishResult{}, fmt.Errorf("get draft %s: %w", id, err)
	}

	result := PublishResult{DraftID: draft.ID, DryRun: opts.DryRun}
	logger := p.logger.With(zap.String("draft_id", string(draft.ID)), zap.String("chat_target", draft.ChatTarget))

	if opts.DryRun {
		p.logDryRun(logger, draft)
		return result, nil
	}

	if err := p.poster.PublishMain(ctx, draft.MainPoster.ProfileID, draft.ChatTarget, draft.Insight.Content, draft.Insight.Images); err != nil {
		return result, fmt.Errorf("publish main insight as %s: %w", draft.MainPoster.ProfileID, err)
	}
	logger.Info("main insight published", zap.String("profile_id", string(draft.MainPoster.ProfileID)))
	p.recordHistory(ctx, logger, draft.Insight.Content)

	for _, response := range draft.Responses {
		if err := p.clock.Sleep(ctx, response.Delay); err != nil {
			logger.Warn("publish interrupted, draft kept for retry",
				zap.String("profile_id", string(response.ProfileID)),
				zap.Error(err),
			)
			return result, err
		}

		outcome := ResponseOutcome{ProfileID: response.ProfileID}
		if err := p.poster.PublishResponse(ctx, response.ProfileID, draft.ChatTarget, response.Content); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Warn("publish response failed",
				zap.String("profile_id", string(response.ProfileID)),
				zap.Error(err),
			)
			outcome.Err = err
			result.Responses = append(result.Responses, outcome)
			continue
		}

		outcome.Delivered = true
		result.Responses = append(result.Responses, outcome)
		logger.Info("response published",
			zap.String("profile_id", string(response.ProfileID)),
			zap.Duration("delay", response.Delay),
		)
		p.recordHistory(ctx, logger, response.Content)
	}

	if opts.DeleteAfter {
		result.CleanupErr = p.cleanup(ctx, draft)
		if result.CleanupErr != nil {
			logger.Warn("cleanup after publish failed", zap.Error(result.CleanupErr))
		}
	}

	logger.Info("discussion published",
		zap.Int("delivered", result.Delivered()),
		zap.Int("failed", result.Failed()),
	)
	return result, nil
}

func (p *Publisher) logDryRun(logger *zap.Logger, draft domain.Draft) {
	logger.Info("dry run: main insight",
		zap.String("profile_id", string(draft.MainPoster.ProfileID)),
		zap.String("content", draft.Insight.Content),
		zap.Strings("images", draft.Insight.Images),
	)
	for _, response := range draft.Responses {
		logger.Info("dry run: response",
			zap.String("profile_id", string(response.ProfileID)),
			zap.Duration("delay", response.Delay),
			zap.String("content", response.Content),
		)
	}
}

func (p *Publisher) recordHistory(ctx context.Context, logger *zap.Logger, message string) {
	if p.history == nil {
		return
	}
	if err := p.history.Append(ctx, message); err != nil {
		logger.Debug("append message history failed", zap.Error(err))
	}
}

func (p *Publisher) cleanup(ctx context.Context, draft domain.Draft) error {
	var cleanupErr error
	if err := p.drafts.Delete(ctx, draft.ID); err != nil {
		cleanupErr = errors.Join(cleanupErr, fmt.Errorf("delete draft: %w", err))
	}
	if draft.Insight.ID != "" {
		if err := p.insights.Delete(ctx, draft.Insight.ID); err != nil {
			cleanupErr = errors.Join(cleanupErr, fmt.Errorf("delete insight: %w", err))
		}
	}
	return cleanupErr
}
