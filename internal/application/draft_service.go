package application

import (
	"context"
	"fmt"

	"github.com/bnema/crowdcast/internal/domain"
	"github.com/bnema/crowdcast/internal/ports"
)

type DraftService struct {
	drafts   ports.DraftRepository
	insights ports.InsightRepository
}

func NewDraftService(drafts ports.DraftRepository, insights ports.InsightRepository) *DraftService {
	return &DraftService{drafts: drafts, insights: insights}
}

func (s *DraftService) List(ctx context.Context) ([]domain.DraftSummary, error) {
	summaries, err := s.drafts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return summaries, nil
}

func (s *DraftService) Get(ctx context.Context, id domain.DraftID) (domain.Draft, error) {
	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("get draft %s: %w", id, err)
	}
	return draft, nil
}

func (s *DraftService) Delete(ctx context.Context, id domain.DraftID) error {
	if err := s.drafts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

func (s *DraftService) Insight(ctx context.Context, id domain.InsightID) (domain.Insight, error) {
	insight, err := s.insights.GetByID(ctx, id)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("get insight %s: %w", id, err)
	}
	return insight, nil
}

func (s *DraftService) DeleteInsight(ctx context.Context, id domain.InsightID) error {
	if err := s.insights.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete insight %s: %w", id, err)
	}
	return nil
}

func (s *DraftService) CountInsights(ctx context.Context) (int, error) {
	count, err := s.insights.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count insights: %w", err)
	}
	return count, nil
}
