package ports

import (
	"context"

	"github.com/bnema/crowdcast/internal/domain"
)

type InsightRepository interface {
	RandomID(ctx context.Context) (domain.InsightID, error)
	GetByID(ctx context.Context, id domain.InsightID) (domain.Insight, error)
	Delete(ctx context.Context, id domain.InsightID) error
	Count(ctx context.Context) (int, error)
}
