package ports

import (
	"context"

	"github.com/bnema/crowdcast/internal/domain"
)

type SettingsSource interface {
	DiscussionSettings(ctx context.Context) (domain.DiscussionSettings, error)
	ChatGroups(ctx context.Context) ([]domain.ChatGroup, error)
}
