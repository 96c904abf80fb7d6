package ports

import (
	"context"

	"github.com/bnema/crowdcast/internal/domain"
)

type DraftRepository interface {
	Save(ctx context.Context, draft domain.Draft) error
	GetByID(ctx context.Context, id domain.DraftID) (domain.Draft, error)
	List(ctx context.Context) ([]domain.DraftSummary, error)
	Delete(ctx context.Context, id domain.DraftID) error
}

type MessageHistory interface {
	Append(ctx context.Context, message string) error
}
